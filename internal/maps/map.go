package maps

// Map is the part of the API shared by orbit and image maps.
type Map interface {
	Name() string
	Kind() Kind
	Definition() *Definition
	Constants() map[string]float64
	SetConstant(name string, v float64) error
}

var (
	_ Map = (*Trajectory)(nil)
	_ Map = (*Permutation)(nil)
)
