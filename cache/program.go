// Package cache caches compiled shader programs indexed by structural key.
package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/drawcore"
	"github.com/gogpu/drawcore/wgsl"
)

// Program cache errors.
var (
	// ErrNilDescriptor is returned when looking up a program without a
	// descriptor.
	ErrNilDescriptor = errors.New("cache: descriptor is nil")

	// ErrKeyCollision is returned when two distinct structural keys hash to
	// the same cache slot. Serving the stored program would silently render
	// garbage, so the collision is detected and surfaced instead.
	ErrKeyCollision = errors.New("cache: structural key hash collision")
)

// Entry is one cached program: the binding that emits code and re-supplies
// uniform data, the WGSL it emitted, and the compiled SPIR-V.
type Entry struct {
	key     drawcore.Key
	binding drawcore.ProgramBinding
	program *wgsl.Program
	source  string
	spirv   []uint32
	module  hal.ShaderModule
}

// Key returns the structural key the entry is stored under.
func (e *Entry) Key() drawcore.Key { return e.key }

// Binding returns the program binding. SetData must be called through it
// once per draw; at most one draw-encoding goroutine may do so at a time.
func (e *Entry) Binding() drawcore.ProgramBinding { return e.binding }

// Program returns the code-generation surfaces the binding emitted into,
// including the built-in device-coordinate uniform handle.
func (e *Entry) Program() *wgsl.Program { return e.program }

// Source returns the emitted WGSL.
func (e *Entry) Source() string { return e.source }

// SPIRV returns the compiled SPIR-V words.
func (e *Entry) SPIRV() []uint32 { return e.spirv }

// Module returns the backend shader module, or nil when the cache was
// populated without a device.
func (e *Entry) Module() hal.ShaderModule { return e.module }

// ProgramCache stores one Entry per distinct structural key. Program
// creation is expensive (code emission plus shader compilation), so entries
// are created once and reused across every draw and every descriptor
// instance that produces the same key.
//
// ProgramCache is safe for concurrent use. It uses RWMutex with
// double-check locking for efficient reads and safe writes; hit/miss
// counters are atomic for lock-free stats reads.
type ProgramCache struct {
	mu      sync.RWMutex
	entries map[uint64]*Entry

	hits   uint64
	misses uint64
}

// NewProgramCache creates an empty program cache.
func NewProgramCache() *ProgramCache {
	return &ProgramCache{entries: make(map[uint64]*Entry)}
}

// Lookup returns the entry stored under key, if any. The full packed key is
// compared on a hash hit so a colliding key can never be served a foreign
// program.
func (c *ProgramCache) Lookup(key drawcore.Key) (*Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key.Hash()]
	c.mu.RUnlock()
	if !ok || !entry.key.Equal(key) {
		return nil, false
	}
	return entry, true
}

// GetOrCreate returns the cached program for the descriptor's structural
// key, creating it on first sight.
//
// The key folds in the attribute layouts, the descriptor's kind-specific
// bits, and the capability flags, since any of them can vary the generated
// code. On a miss the descriptor manufactures a binding, the binding emits
// code exactly once into fresh wgsl builders, and the result is compiled to
// SPIR-V; when device is non-nil a backend shader module is created as well.
//
// Returns ErrKeyCollision if a distinct key hashes to an occupied slot.
func (c *ProgramCache) GetOrCreate(
	device hal.Device,
	desc drawcore.GeometryDescriptor,
	caps drawcore.ShaderCaps,
) (*Entry, error) {
	if desc == nil {
		return nil, ErrNilDescriptor
	}

	key := buildKey(desc, caps)

	// Fast path: read lock
	c.mu.RLock()
	entry, ok := c.entries[key.Hash()]
	c.mu.RUnlock()
	if ok {
		if !entry.key.Equal(key) {
			return nil, fmt.Errorf("%w: hash %#016x", ErrKeyCollision, key.Hash())
		}
		atomic.AddUint64(&c.hits, 1)
		return entry, nil
	}

	// Slow path: write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key.Hash()]; ok {
		if !entry.key.Equal(key) {
			return nil, fmt.Errorf("%w: hash %#016x", ErrKeyCollision, key.Hash())
		}
		atomic.AddUint64(&c.hits, 1)
		return entry, nil
	}

	entry, err := createEntry(device, key, desc, caps)
	if err != nil {
		return nil, err
	}

	c.entries[key.Hash()] = entry
	atomic.AddUint64(&c.misses, 1)

	return entry, nil
}

// buildKey assembles the full structural key: attribute contributions, then
// kind-specific bits, then the capability flags that can vary generated
// code.
func buildKey(desc drawcore.GeometryDescriptor, caps drawcore.ShaderCaps) drawcore.Key {
	b := drawcore.NewKeyBuilder()
	desc.AttributeKey(b)
	desc.AddToKey(b)
	b.AddBool(caps.NoPerspectiveInterpolation, "caps.noPerspective")
	b.AddBool(caps.ReducedShaderMode, "caps.reducedShader")
	return b.Finish()
}

// createEntry runs the one-time program construction for a cache miss.
func createEntry(
	device hal.Device,
	key drawcore.Key,
	desc drawcore.GeometryDescriptor,
	caps drawcore.ShaderCaps,
) (*Entry, error) {
	binding := desc.MakeProgramBinding(caps)

	prog := wgsl.NewProgram()
	if err := drawcore.EmitProgram(binding, prog.EmitArgs(desc, caps)); err != nil {
		return nil, fmt.Errorf("cache: emit program: %w", err)
	}
	source := prog.Source()

	drawcore.Logger().Info("compiling shader program",
		"key", fmt.Sprintf("%#016x", key.Hash()),
		"sourceBytes", len(source))

	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("cache: compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	entry := &Entry{
		key:     key,
		binding: binding,
		program: prog,
		source:  source,
		spirv:   spirv,
	}

	if device != nil {
		module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  fmt.Sprintf("drawcore-program-%016x", key.Hash()),
			Source: hal.ShaderSource{SPIRV: spirv},
		})
		if err != nil {
			return nil, fmt.Errorf("cache: create shader module: %w", err)
		}
		entry.module = module
	}

	return entry, nil
}

// Stats returns the number of cache hits and misses. The values are read
// atomically and may not be perfectly synchronized with each other.
func (c *ProgramCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// HitRate returns the cache hit rate in [0.0, 1.0], or 0.0 before any
// request.
func (c *ProgramCache) HitRate() float64 {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Size returns the number of cached programs.
func (c *ProgramCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries and resets statistics. It does not destroy
// backend shader modules; use DestroyAll when resource cleanup is needed.
func (c *ProgramCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*Entry)
	atomic.StoreUint64(&c.hits, 0)
	atomic.StoreUint64(&c.misses, 0)
}

// DestroyAll destroys the backend shader modules of all entries on the
// given device, then clears the cache.
func (c *ProgramCache) DestroyAll(device hal.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		if entry.module != nil && device != nil {
			device.DestroyShaderModule(entry.module)
		}
	}
	c.entries = make(map[uint64]*Entry)
	atomic.StoreUint64(&c.hits, 0)
	atomic.StoreUint64(&c.misses, 0)
}
