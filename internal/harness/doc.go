// Package harness runs YAML scenarios against a fresh in-memory store.
//
// # Scenario Format
//
//	name: person_rename
//	description: "Moving a rename off the main timeline restores the old name"
//	vocabularies:
//	  - ../vocabularies
//	steps:
//	  - transact: '[[:db/add "p" :person/name "Ann"]]'
//	    expect:
//	      tempids: [p]
//	  - transact: '[[:db/add $p :person/name "Anne"]]'
//	  - move: {from_step: 1, timeline: 1}
//	    expect:
//	      moved: 1
//	  - query: '[:find ?n :where [?e :person/name ?n]]'
//	    expect:
//	      rows: [['"Ann"']]
//	assertions:
//	  - type: value
//	    entity: $p
//	    attribute: ":person/name"
//	    values: ['"Ann"']
//
// $name in a transaction, query or assertion entity is replaced by the
// causetid a previous step resolved tempid name to. Values are compared in
// their EDN text form.
//
// # Assertion Types
//
//   - value: the current values of (entity, attribute)
//   - attribute: an attribute is installed, or absent when absent is set
//   - timeline: the number of transactions on a timeline
//
// # Deterministic Testing
//
// Every scenario uses a testutil.DeterministicClock, so transaction
// instants, and with them the golden datom dumps, are identical across
// runs. Golden files live in testdata/golden; regenerate them with
//
//	go test ./internal/harness -update
package harness
