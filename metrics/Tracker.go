package metrics

import (
	"encoding/gob"
	"fmt"
	"os"
	"sort"
)

// Data is the data saved by a Tracker
type Data struct {
	Tag         string
	Hyperparams map[string]string
	Series      map[string][]Point
}

// Tracker caches all recorded data in memory and saves it to disk as a
// gob-encoded Data when closed
type Tracker struct {
	filename string
	data     Data
}

// NewTracker returns a new Tracker which saves to filename
func NewTracker(filename string) *Tracker {
	return &Tracker{
		filename: filename,
		data: Data{
			Hyperparams: make(map[string]string),
			Series:      make(map[string][]Point),
		},
	}
}

// Hyperparams records the hyperparameters of the run. Values are
// stored in their printed form.
func (t *Tracker) Hyperparams(tag string, hp map[string]interface{}) error {
	t.data.Tag = tag
	for k, v := range hp {
		t.data.Hyperparams[k] = fmt.Sprint(v)
	}
	return nil
}

// Scalar caches a single value of a series
func (t *Tracker) Scalar(name string, step int, value float64) error {
	t.data.Series[name] = append(t.data.Series[name], Point{step, value})
	return nil
}

// Names returns the sorted names of all series tracked so far
func (t *Tracker) Names() []string {
	names := make([]string, 0, len(t.data.Series))
	for name := range t.data.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Series returns a copy of the points recorded for a series
func (t *Tracker) Series(name string) []Point {
	return append([]Point(nil), t.data.Series[name]...)
}

// Close saves the data tracked by the Tracker to disk
func (t *Tracker) Close() error {
	file, err := os.Create(t.filename)
	if err != nil {
		return fmt.Errorf("close: could not open save file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(t.data); err != nil {
		return fmt.Errorf("close: could not encode data: %v", err)
	}
	return nil
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) (Data, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Data{}, fmt.Errorf("loadData: could not open data file: %v",
			err)
	}
	defer file.Close()

	var data Data
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&data); err != nil {
		return Data{}, fmt.Errorf("loadData: could not decode data: %v", err)
	}
	return data, nil
}
