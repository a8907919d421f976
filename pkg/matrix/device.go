package matrix

// DeviceMatrix is the stamping surface devices write into. Indices are
// 1-based; index 0 is the reference node and is never stamped.
type DeviceMatrix interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
	AddComplexElement(i, j int, real, imag float64)
	AddComplexRHS(i int, real, imag float64)
}
