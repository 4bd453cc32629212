package differ

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithTolerance treats displacements up to metres as unchanged. Zero, the
// default, compares coordinates exactly. Projected layers measure the
// displacement in the units of their projection.
func WithTolerance(metres float64) Option {
	return func(d *differ) {
		if metres > 0 {
			d.tolerance = metres
		}
	}
}
