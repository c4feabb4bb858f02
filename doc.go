// Package drawcore is the draw-description front end of a GPU rendering
// pipeline: it defines the per-vertex and per-instance data layouts fed to
// the hardware, derives the deterministic structural keys that drive shader
// program caching, and specifies the contract by which cached programs are
// re-supplied with fresh uniform data on every draw.
//
// # Overview
//
// Each kind of drawable primitive is described by a [GeometryDescriptor]:
// an immutable object holding at most one vertex attribute layout+mask pair
// and one instance pair, plus whatever kind-specific immutable state its
// shading needs. [AttributeLayout] schemas are shared by reference across
// descriptors; a per-descriptor [DescriptorCore] mask selects which slots
// are active, so two draw kinds can share one schema while activating
// different subsets.
//
// Draw submission asks a descriptor for its structural key (built with a
// [KeyBuilder]), looks the key up in the program cache, and on a miss asks
// the descriptor to manufacture a [ProgramBinding]. The binding emits
// shader code exactly once; on every draw after that, hit or miss, only its
// SetData step runs, diffing uniform values against the last applied state
// so redundant uploads are skipped.
//
// # Wire format
//
// The structural key bit layout is load-bearing: field widths, ordering,
// sentinel values, and the type-code enumerations are a persisted contract
// with cached programs. Any change must be versioned.
//
// # Sub-packages
//
//   - cache: the program cache, keyed by structural key, compiling emitted
//     WGSL on miss.
//   - wgsl: concrete code-generation builders producing WGSL source.
//   - geomproc: concrete geometry descriptor kinds.
//
// # Concurrency
//
// Layouts and descriptors are immutable after construction and need no
// synchronization. Program bindings hold last-applied uniform state and
// assume at most one draw-encoding goroutine calls SetData at a time.
package drawcore
