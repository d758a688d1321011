package config

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"

	"go.viam.com/pinmux/components/pinmux"
)

// A Diff is the difference between two configs, left and right
// where left is usually old and right is new. So the diff is the
// changes from left to right.
type Diff struct {
	Left, Right  *Config
	Added        []pinmux.DeviceConfig
	Modified     []pinmux.DeviceConfig
	Removed      []pinmux.DeviceConfig
	DevicesEqual bool
	LogEqual     bool
	WebEqual     bool
	PrettyDiff   string
}

// DiffConfigs returns the difference between the two given configs
// from left to right.
func DiffConfigs(left, right Config) (*Diff, error) {
	prettyDiff, err := prettyDiff(left, right)
	if err != nil {
		return nil, err
	}

	diff := Diff{
		Left:       &left,
		Right:      &right,
		PrettyDiff: prettyDiff,
	}

	// If left contains something right does not => removed
	// If right contains something left does not => added
	// If left contains something right does and they are not equal => modified
	diff.DevicesEqual = !diffDevices(left.Devices, right.Devices, &diff)
	diff.LogEqual = reflect.DeepEqual(left.Log, right.Log)
	diff.WebEqual = left.Web == right.Web
	return &diff, nil
}

func prettyDiff(left, right Config) (string, error) {
	leftMd, err := json.MarshalIndent(left, "", " ")
	if err != nil {
		return "", err
	}
	rightMd, err := json.MarshalIndent(right, "", " ")
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(leftMd), string(rightMd), true)
	filteredDiffs := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		filteredDiffs = append(filteredDiffs, d)
	}
	return dmp.DiffPrettyText(filteredDiffs), nil
}

// String returns a pretty version of the diff.
func (diff *Diff) String() string {
	return diff.PrettyDiff
}

func diffDevices(left, right []pinmux.DeviceConfig, diff *Diff) bool {
	leftIndex := make(map[string]int)
	leftM := make(map[string]pinmux.DeviceConfig)
	for idx, l := range left {
		leftM[l.Name] = l
		leftIndex[l.Name] = idx
	}

	var different bool
	for _, r := range right {
		l, ok := leftM[r.Name]
		delete(leftM, r.Name)
		if ok {
			if !deviceConfigsEqual(l, r) {
				diff.Modified = append(diff.Modified, r)
				different = true
			}
			continue
		}
		diff.Added = append(diff.Added, r)
		different = true
	}

	removed := make([]int, 0, len(leftM))
	for k := range leftM {
		removed = append(removed, leftIndex[k])
		different = true
	}
	sort.Ints(removed)
	for _, idx := range removed {
		diff.Removed = append(diff.Removed, left[idx])
	}
	return different
}

// deviceConfigsEqual compares what a device was built from. Converted attributes are derived from
// the raw ones and are ignored.
func deviceConfigsEqual(left, right pinmux.DeviceConfig) bool {
	left.ConvertedAttributes = nil
	right.ConvertedAttributes = nil
	return reflect.DeepEqual(left, right)
}
