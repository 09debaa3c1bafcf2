package domain

// ScenarioNone is the key of the "no flood scenario" choice.
const ScenarioNone = "none"

// Scenario is a selectable flood extent. The none scenario carries no layer.
type Scenario struct {
	Key   string
	Name  string
	Layer Maybe[Layer]
}

// Selected reports whether the scenario has a flood extent to compare
// against.
func (s Scenario) Selected() bool {
	return s.Key != ScenarioNone && s.Layer.Present()
}
