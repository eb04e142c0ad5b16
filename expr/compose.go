package expr

// Forward composes two compiled expressions left to right:
// Forward(f, g)(x) == g(f(x)).
func Forward(f, g Fn) Fn {
	return func(x any) (any, error) {
		v, err := f(x)
		if err != nil {
			return nil, err
		}
		return g(v)
	}
}

// Backward composes two compiled expressions right to left:
// Backward(f, g)(x) == f(g(x)).
func Backward(f, g Fn) Fn {
	return Forward(g, f)
}
