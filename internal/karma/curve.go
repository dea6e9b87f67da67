package karma

import "fmt"

// Curve maps a 1-5 star rating to the karma the reviewee receives.
type Curve func(rating int) int

func LinearCurve(rating int) int {
	return rating
}

var tieredAmounts = map[int]int{
	5: 5,
	4: 2,
	3: 0,
	2: -5,
	1: -10,
}

// TieredCurve rewards good ratings and penalises poor ones.
func TieredCurve(rating int) int {
	return tieredAmounts[rating]
}

func CurveByName(name string) (Curve, error) {
	switch name {
	case "", "linear":
		return LinearCurve, nil
	case "tiered":
		return TieredCurve, nil
	default:
		return nil, fmt.Errorf("unknown rating curve %q", name)
	}
}
