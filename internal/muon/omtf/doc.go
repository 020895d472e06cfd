// Package omtf builds the per-processor input snapshot of the overlap muon
// track finder from raw DT, CSC and RPC trigger primitives.
//
// Responsibilities: deciding which chambers feed which processor
// (Tables.Accept), mapping accepted chambers to a dense input slot
// (Tables.InputNumber), clustering RPC strips, and writing converted
// angles into an Input grid (InputMaker.Build).
//
// Tables is immutable once built and may be shared between goroutines.
// An InputMaker reuses one Input buffer and must be owned by one worker.
//
// Pattern matching on the resulting Input is done downstream.
package omtf
