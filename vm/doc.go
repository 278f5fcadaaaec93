// Package vm implements the Algo runtime.
//
// This package contains:
//   - Type descriptors and the record registry
//   - Tagged value representation (scalars, fixed strings, arrays, records, pointers)
//   - The simulated memory model (variable slots, heap blocks, pointer arithmetic)
//   - The intermediate program (IR) and its textual form
//   - A tree-walking interpreter that emits per-statement snapshots
package vm
