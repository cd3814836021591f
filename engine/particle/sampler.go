package particle

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Sampling bias bonuses added to the base score of 1.
const (
	BiasUpperBody  float32 = 1.5
	BiasUpperHead  float32 = 1.0
	BiasHeadRegion float32 = 2.0
	BiasBodyRegion float32 = 1.0

	upperBodyHeight float32 = 0.6
	upperHeadHeight float32 = 0.8
)

// Sub-mesh name fragments matched case-insensitively for the region bonus.
var (
	headRegionNames = []string{"head", "neck", "face"}
	bodyRegionNames = []string{"chest", "spine", "upper"}
)

// keyChunkSize is the number of vertices scored per worker task.
const keyChunkSize = 2048

// Sampler selects a density-controlled, spatially biased subset of a rigged mesh's vertices
// and turns each into a Particle.
type Sampler interface {
	// Sample selects round(density * vertexCount) vertices and returns their particles in
	// mesh order. Density is clamped into [0, 1]. An empty mesh yields an empty slice.
	//
	// Parameters:
	//   - mesh: the rigged mesh (nil yields no particles)
	//   - density: the fraction of vertices to keep
	//
	// Returns:
	//   - []Particle: the sampled particles
	Sample(mesh *model.RiggedMesh, density float32) []Particle

	// SelectIndices returns the global vertex indices Sample would keep, in ascending order.
	// The result depends only on the mesh geometry, sub-mesh names, and density.
	//
	// Parameters:
	//   - mesh: the rigged mesh
	//   - density: the fraction of vertices to keep
	//
	// Returns:
	//   - []int: selected global vertex indices
	SelectIndices(mesh *model.RiggedMesh, density float32) []int
}

type sampler struct {
	mu *sync.Mutex

	baseSize   float32
	sizeMin    float32
	sizeMax    float32
	opacityMin float32
	opacityMax float32
	palette    []mgl32.Vec3
	seed       int64

	workers int
	pool    worker.DynamicWorkerPool

	log *zap.Logger
}

var _ Sampler = &sampler{}

// vertexRef addresses one vertex by sub-mesh and local index.
type vertexRef struct {
	subMesh int
	vertex  int
}

// NewSampler creates a Sampler with the default size, opacity, and palette.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Sampler: the sampler
func NewSampler(options ...SamplerBuilderOption) Sampler {
	s := &sampler{
		mu:         &sync.Mutex{},
		baseSize:   DefaultBaseSize,
		sizeMin:    DefaultSizeMin,
		sizeMax:    DefaultSizeMax,
		opacityMin: DefaultOpacityMin,
		opacityMax: DefaultOpacityMax,
		palette:    PaletteFromHex(DefaultPaletteHex),
		seed:       1,
		log:        logger.Named("sampler"),
	}
	for _, opt := range options {
		opt(s)
	}
	if len(s.palette) == 0 {
		s.palette = PaletteFromHex(DefaultPaletteHex)
	}
	if s.workers > 1 {
		s.pool = worker.NewDynamicWorkerPool(s.workers, 256, 1*time.Second)
	}
	return s
}

func (s *sampler) Sample(mesh *model.RiggedMesh, density float32) []Particle {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := flattenVertices(mesh)
	selected := s.selectLocked(mesh, refs, density)
	if len(selected) == 0 {
		s.log.Debug("no particles sampled", zap.Int("vertices", len(refs)), zap.Float32("density", density))
		return []Particle{}
	}

	// Attribute randomness is seeded so repeated loads look identical.
	rng := rand.New(rand.NewSource(s.seed))
	out := make([]Particle, len(selected))
	var renormalized int
	for i, global := range selected {
		ref := refs[global]
		sm := &mesh.SubMeshes[ref.subMesh]
		p := Particle{
			RestPosition: mgl32.Vec3(sm.Positions[ref.vertex]),
			RestUV:       DefaultUV,
			SubMesh:      ref.subMesh,
			VertexIndex:  global,
		}
		if sm.HasUVs() {
			p.RestUV = mgl32.Vec2(sm.UVs[ref.vertex])
		}
		if sm.Skinned() {
			p.Skinned = true
			p.BoneIndices = sm.Joints[ref.vertex]
			p.BoneWeights = sm.Weights[ref.vertex]
			if clampWeights(&p.BoneWeights) {
				renormalized++
			}
		}
		p.Size = s.baseSize * common.Lerp(s.sizeMin, s.sizeMax, rng.Float32())
		p.Color = s.palette[rng.Intn(len(s.palette))]
		p.Opacity = common.Lerp(s.opacityMin, s.opacityMax, rng.Float32())
		p.Phase = rng.Float32()
		out[i] = p
	}
	if renormalized > 0 {
		s.log.Warn("bone weights exceeded 1 and were renormalized", zap.Int("particles", renormalized))
	}

	s.log.Debug("sampled particles",
		zap.String("mesh", mesh.Name),
		zap.Int("vertices", len(refs)),
		zap.Int("particles", len(out)),
		zap.Float32("density", density),
	)
	return out
}

func (s *sampler) SelectIndices(mesh *model.RiggedMesh, density float32) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(mesh, flattenVertices(mesh), density)
}

// selectLocked ranks every vertex by hash/bias and keeps the lowest keys. Caller must hold the mutex.
func (s *sampler) selectLocked(mesh *model.RiggedMesh, refs []vertexRef, density float32) []int {
	n := len(refs)
	target := TargetCount(n, density)
	if target == 0 {
		return nil
	}

	keys := make([]float32, n)
	s.computeKeys(mesh, refs, keys)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka != kb {
			return ka < kb
		}
		return order[a] < order[b]
	})

	selected := order[:target]
	sort.Ints(selected)
	return selected
}

// computeKeys fills keys with hash(index)/bias(vertex). Large meshes are scored in chunks on
// the worker pool.
func (s *sampler) computeKeys(mesh *model.RiggedMesh, refs []vertexRef, keys []float32) {
	min, max := mesh.Bounds()
	minY := min[1]
	extentY := max[1] - min[1]

	regionBonus := make([]float32, len(mesh.SubMeshes))
	for i := range mesh.SubMeshes {
		regionBonus[i] = RegionBonus(mesh.SubMeshes[i].Name)
	}

	score := func(from, to int) {
		for g := from; g < to; g++ {
			ref := refs[g]
			y := mesh.SubMeshes[ref.subMesh].Positions[ref.vertex][1]
			var h float32
			if extentY > 0 {
				h = (y - minY) / extentY
			}
			bias := HeightBias(h) + regionBonus[ref.subMesh]
			keys[g] = common.Hash01(g) / bias
		}
	}

	if s.workers <= 1 || len(refs) <= keyChunkSize {
		score(0, len(refs))
		return
	}

	var wg sync.WaitGroup
	taskID := 0
	for from := 0; from < len(refs); from += keyChunkSize {
		to := from + keyChunkSize
		if to > len(refs) {
			to = len(refs)
		}
		wg.Add(1)
		lo, hi := from, to
		s.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				score(lo, hi)
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()
}

// TargetCount returns round(density * vertexCount) with density clamped into [0, 1].
//
// Parameters:
//   - vertexCount: number of candidate vertices
//   - density: requested fraction
//
// Returns:
//   - int: the number of particles to keep
func TargetCount(vertexCount int, density float32) int {
	if vertexCount <= 0 || density <= 0 || math.IsNaN(float64(density)) {
		return 0
	}
	if density > 1 {
		density = 1
	}
	n := int(math.Round(float64(density) * float64(vertexCount)))
	if n > vertexCount {
		n = vertexCount
	}
	return n
}

// HeightBias returns the base score plus the upper-body bonuses for a normalized height.
//
// Parameters:
//   - h: the vertex height normalized into [0, 1] over the mesh's vertical extent
//
// Returns:
//   - float32: the height part of the bias score
func HeightBias(h float32) float32 {
	bias := float32(1)
	if h >= upperBodyHeight {
		bias += BiasUpperBody
	}
	if h >= upperHeadHeight {
		bias += BiasUpperHead
	}
	return bias
}

// RegionBonus returns the anatomical bonus for a sub-mesh name.
//
// Parameters:
//   - name: the sub-mesh name
//
// Returns:
//   - float32: BiasHeadRegion, BiasBodyRegion, or 0
func RegionBonus(name string) float32 {
	lower := strings.ToLower(name)
	for _, frag := range headRegionNames {
		if strings.Contains(lower, frag) {
			return BiasHeadRegion
		}
	}
	for _, frag := range bodyRegionNames {
		if strings.Contains(lower, frag) {
			return BiasBodyRegion
		}
	}
	return 0
}

func flattenVertices(mesh *model.RiggedMesh) []vertexRef {
	if mesh == nil {
		return nil
	}
	refs := make([]vertexRef, 0, mesh.VertexCount())
	for si := range mesh.SubMeshes {
		for vi := range mesh.SubMeshes[si].Positions {
			refs = append(refs, vertexRef{subMesh: si, vertex: vi})
		}
	}
	return refs
}

// clampWeights zeroes negative weights and rescales weights summing above 1.
// Returns true when rescaling was needed.
func clampWeights(w *[4]float32) bool {
	var sum float32
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum <= 1+weightEpsilon {
		return false
	}
	for i := range w {
		w[i] /= sum
	}
	return true
}
