package fluidbake

// Stage is one unit of bake-state progression for the grid solver.
type Stage int

const (
	StageData Stage = iota
	StageNoise
	StageMesh
	StageParticles
	StageGuiding
	StageCount
)

func (s Stage) String() string {
	switch s {
	case StageData:
		return "data"
	case StageNoise:
		return "noise"
	case StageMesh:
		return "mesh"
	case StageParticles:
		return "particles"
	case StageGuiding:
		return "guiding"
	}
	return "invalid"
}

// State is a bitset over {baking, baked} x stages. For any stage at most
// one of the two bits holds. It is stored in DomainSettings and therefore
// survives process restarts.
type State uint32

func bakingBit(s Stage) State { return 1 << (2 * uint(s)) }
func bakedBit(s Stage) State  { return 2 << (2 * uint(s)) }

// Baking reports whether stage s is currently being baked.
func (st State) Baking(s Stage) bool { return st&bakingBit(s) != 0 }

// Baked reports whether stage s has a complete cache.
func (st State) Baked(s Stage) bool { return st&bakedBit(s) != 0 }

// AnyBaking reports whether any stage has its baking bit set.
func (st State) AnyBaking() bool {
	for s := StageData; s < StageCount; s++ {
		if st.Baking(s) {
			return true
		}
	}
	return false
}

// SetBaking marks stage s as in progress, clearing its baked bit.
func (st *State) SetBaking(s Stage) {
	*st = (*st &^ bakedBit(s)) | bakingBit(s)
}

// SetBaked marks stage s as complete, clearing its baking bit.
func (st *State) SetBaked(s Stage) {
	*st = (*st &^ bakingBit(s)) | bakedBit(s)
}

// Clear drops both bits of stage s.
func (st *State) Clear(s Stage) {
	*st = *st &^ (bakingBit(s) | bakedBit(s))
}

// DependsOnData reports whether freeing the data stage must also free s.
// Guiding caches survive a data free, the rest would desynchronize.
func DependsOnData(s Stage) bool {
	switch s {
	case StageNoise, StageMesh, StageParticles:
		return true
	}
	return false
}
