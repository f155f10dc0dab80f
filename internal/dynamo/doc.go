// Package dynamo provides the core primitives shared by every iterated map.
//
//   - [Symbols]: ordered name table mapping variables and constants to slots
//   - [State]: slot values with a per-slot "assigned" flag
//   - [Mod]: floored modulo used for toroidal wrap-around
//   - [ValidationError]: recoverable input errors
//   - [ParallelFor]: chunked fan-out for independent work items
//
// # Example
//
//	syms, _ := dynamo.NewSymbols("q", "p", "K")
//	st := dynamo.NewState(syms)
//	st.Set("q", 0.5)
//	q, err := st.Get("q")
//
// # Thread Safety
//
// State is NOT thread-safe. Workers spawned by [ParallelFor] must each
// use their own State (see [State.Clone]).
package dynamo
