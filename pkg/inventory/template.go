package inventory

import "strconv"

// Range is an inclusive span of slot indices.
type Range struct {
	Lo, Hi int
}

// Len returns the number of slots in the range.
func (r Range) Len() int {
	return r.Hi - r.Lo + 1
}

// Contains reports whether i is inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Lo && i <= r.Hi
}

// Template is the fixed slot layout of a window type.
type Template struct {
	Name   string
	Size   int
	Ranges map[string]Range
}

// Range returns a named range of the template.
func (t Template) Range(name string) (Range, bool) {
	r, ok := t.Ranges[name]
	return r, ok
}

// Player inventory slot indices (window 0).
const (
	PlayerSize       = 46
	HotbarStart      = 36
	HotbarSize       = 9
	OffhandSlot      = 45
	MainInventoryLo  = 9
	MainInventoryLen = 36 // main rows and hotbar
)

// PlayerTemplate is the layout of window 0.
var PlayerTemplate = Template{
	Name: "player",
	Size: PlayerSize,
	Ranges: map[string]Range{
		"crafting_output": {0, 0},
		"crafting_input":  {1, 4},
		"armor":           {5, 8},
		"main_inventory":  {9, 35},
		"hotbar":          {36, 44},
		"offhand":         {45, 45},
	},
}

// container builds a template whose container slots are followed by the 36
// player slots (three main rows then the hotbar).
func container(name string, ranges map[string]Range, containerSize int) Template {
	ranges["main_inventory"] = Range{containerSize, containerSize + MainInventoryLen - 1}
	ranges["hotbar"] = Range{containerSize + 27, containerSize + MainInventoryLen - 1}
	return Template{Name: name, Size: containerSize + MainInventoryLen, Ranges: ranges}
}

func rows(n int) map[string]Range {
	m := make(map[string]Range, n)
	for i := 0; i < n; i++ {
		m["row_"+strconv.Itoa(i)] = Range{i * 9, i*9 + 8}
	}
	return m
}

// Templates holds the window types of the 1.16 and 1.17 menu registry,
// indexed by the type id sent in Open Window.
var Templates = []Template{
	container("generic_9x1", rows(1), 9),
	container("generic_9x2", rows(2), 18),
	container("generic_9x3", rows(3), 27),
	container("generic_9x4", rows(4), 36),
	container("generic_9x5", rows(5), 45),
	container("generic_9x6", rows(6), 54),
	container("generic_3x3", map[string]Range{"row_0": {0, 2}, "row_1": {3, 5}, "row_2": {6, 8}}, 9),
	container("anvil", map[string]Range{"first_item": {0, 0}, "second_item": {1, 1}, "output": {2, 2}}, 3),
	container("beacon", map[string]Range{"payment_item": {0, 0}}, 1),
	container("blast_furnace", map[string]Range{"ingredient": {0, 0}, "fuel": {1, 1}, "output": {2, 2}}, 3),
	container("brewing_stand", map[string]Range{"bottles": {0, 2}, "ingredient": {3, 3}, "blaze_powder": {4, 4}}, 5),
	container("crafting_table", map[string]Range{"output": {0, 0}, "input": {1, 9}}, 10),
	container("enchantment_table", map[string]Range{"item": {0, 0}, "lapis_lazuli": {1, 1}}, 2),
	container("furnace", map[string]Range{"ingredient": {0, 0}, "fuel": {1, 1}, "output": {2, 2}}, 3),
	container("grindstone", map[string]Range{"top": {0, 0}, "bottom": {1, 1}, "output": {2, 2}}, 3),
	container("hopper", map[string]Range{"slots": {0, 4}}, 5),
	container("lectern", map[string]Range{"book": {0, 0}}, 1),
	container("loom", map[string]Range{"banner": {0, 0}, "dye": {1, 1}, "pattern": {2, 2}, "output": {3, 3}}, 4),
	container("villager_trading", map[string]Range{"first_item": {0, 0}, "second_item": {1, 1}, "output": {2, 2}}, 3),
	container("shulker_box", rows(3), 27),
	container("smithing", map[string]Range{"base": {0, 0}, "addition": {1, 1}, "output": {2, 2}}, 3),
	container("smoker", map[string]Range{"ingredient": {0, 0}, "fuel": {1, 1}, "output": {2, 2}}, 3),
	container("cartography_table", map[string]Range{"map": {0, 0}, "paper": {1, 1}, "output": {2, 2}}, 3),
	container("stonecutter", map[string]Range{"input": {0, 0}, "output": {1, 1}}, 2),
}

// TemplateFor returns the template of a window type id.
func TemplateFor(windowType int32) (Template, bool) {
	if windowType < 0 || int(windowType) >= len(Templates) {
		return Template{}, false
	}
	return Templates[windowType], true
}
