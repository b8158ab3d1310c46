package xmlresp

// Record is a validated element. Getters return zero values for absent optional fields.
type Record struct {
	path   string
	values map[string]any
}

func (r Record) Path() string { return r.path }

func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r Record) String(name string) string {
	v, _ := r.values[name].(string)
	return v
}

func (r Record) Int(name string) int {
	v, _ := r.values[name].(int)
	return v
}

func (r Record) Float(name string) float64 {
	v, _ := r.values[name].(float64)
	return v
}

// Coordinates returns the latitude/longitude pair and whether it was present.
func (r Record) Coordinates(name string) ([2]float64, bool) {
	v, ok := r.values[name].([2]float64)
	return v, ok
}

func (r Record) Group(name string) (Record, bool) {
	v, ok := r.values[name].(Record)
	return v, ok
}

func (r Record) List(name string) []Record {
	v, _ := r.values[name].([]Record)
	return v
}
