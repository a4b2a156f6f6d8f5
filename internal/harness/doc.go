// Package harness runs conformance scenarios against the query front end.
//
// A scenario is a YAML file that names a query or a batch, the metadata it
// is checked against, and the outcomes it must produce.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	metadata: ../config          # optional CUE metadata tree, relative to the file
//	objects:                     # optional inline metadata objects
//	  - kind: document
//	    name: Заказ
//	    attributes:
//	      - { name: Сумма, type: "Число(15,2)" }
//	params:                      # optional parameter types
//	  Период: Дата
//	query: |                     # exactly one of query and batch
//	  ВЫБРАТЬ Номер ИЗ Документ.Заказ
//	embedded: false              # true for |-continued text from host code
//	assertions:
//	  - type: field_type
//	    field: Номер
//	    expect: String
//
// # Assertion Types
//
//   - field_type: the named result field of a statement has the expected type
//   - field_count: a statement has exactly count result fields
//   - error_code: a statement reported at least one error with code
//   - error_count: a statement reported exactly count errors
//   - no_errors: no statement reported an error
//   - parse_error: parsing failed, with expect as a message substring
//   - execution_order: the batch execution order equals order
//   - parallel_groups: the batch parallel groups equal groups
//   - temp_table: table is created by statement creator
//   - warning: the batch analysis produced a warning with code
//   - connected / disconnected: whether statements share temp tables
//
// # Determinism
//
// Each scenario runs against a fresh in-memory metadata store. Checking is
// pure, so the canonical snapshot of a run is byte-identical across runs
// and can be compared against a golden file.
package harness
