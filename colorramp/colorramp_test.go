package colorramp

import (
	"reflect"
	"testing"
)

func TestExpand_Sample(t *testing.T) {
	anchors := []string{"#FF0000", "#00ff00", "#0000ff", "#000000", "#ffffff"}

	cases := []struct {
		name   string
		count  int
		mode   Mode
		result []string
	}{
		{
			name:   "categorical takes the first",
			count:  3,
			mode:   Categorical,
			result: []string{"#ff0000", "#00ff00", "#0000ff"},
		},
		{
			name:   "ranged keeps the ends",
			count:  3,
			mode:   Ranged,
			result: []string{"#ff0000", "#0000ff", "#ffffff"},
		},
		{
			name:   "ranged all",
			count:  5,
			mode:   Ranged,
			result: []string{"#ff0000", "#00ff00", "#0000ff", "#000000", "#ffffff"},
		},
		{
			name:   "ranged one",
			count:  1,
			mode:   Ranged,
			result: []string{"#ff0000"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			colors, err := Expand(anchors, tc.count, tc.mode)
			if err != nil {
				t.Fatalf("expand error: %v", err)
			}

			if !reflect.DeepEqual(colors, tc.result) {
				t.Errorf("incorrect colors: %v != %v", colors, tc.result)
			}
		})
	}
}

func TestExpand_Interpolate(t *testing.T) {
	colors, err := Expand([]string{"#000000", "#ffffff"}, 3, Ranged)
	if err != nil {
		t.Fatalf("expand error: %v", err)
	}

	expected := []string{"#000000", "#808080", "#ffffff"}
	if !reflect.DeepEqual(colors, expected) {
		t.Errorf("incorrect colors: %v != %v", colors, expected)
	}

	colors, err = Expand([]string{"#ff0000", "#00ff00", "#0000ff"}, 5, Categorical)
	if err != nil {
		t.Fatalf("expand error: %v", err)
	}

	expected = []string{"#ff0000", "#808000", "#00ff00", "#008080", "#0000ff"}
	if !reflect.DeepEqual(colors, expected) {
		t.Errorf("incorrect colors: %v != %v", colors, expected)
	}
}

func TestExpand_Length(t *testing.T) {
	anchors := []string{"#123", "#abcdef"}
	for count := 0; count < 20; count++ {
		for _, mode := range []Mode{Categorical, Ranged} {
			colors, err := Expand(anchors, count, mode)
			if err != nil {
				t.Fatalf("expand error: %v", err)
			}

			if len(colors) != count {
				t.Errorf("incorrect length: %d != %d", len(colors), count)
			}
		}
	}
}

func TestExpand_SingleAnchor(t *testing.T) {
	colors, err := Expand([]string{"#336699"}, 3, Ranged)
	if err != nil {
		t.Fatalf("expand error: %v", err)
	}

	if !reflect.DeepEqual(colors, []string{"#336699", "#336699", "#336699"}) {
		t.Errorf("should repeat the color: %v", colors)
	}
}

func TestExpand_Errors(t *testing.T) {
	if _, err := Expand(nil, 3, Ranged); err == nil {
		t.Errorf("no anchors should error")
	}

	if _, err := Expand([]string{"not a color"}, 3, Ranged); err == nil {
		t.Errorf("invalid color should error")
	}
}

func TestNormalize(t *testing.T) {
	c, err := Normalize("#ABC")
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}

	if c != "#aabbcc" {
		t.Errorf("incorrect color: %v", c)
	}
}
