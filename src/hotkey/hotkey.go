// Package hotkey is the global-hotkey capture trigger, backed by gohook.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Listen registers combo (e.g. "Ctrl+Alt+Q") and calls trigger each time
// the whole combination goes down. The returned func stops the hook.
func Listen(combo string, trigger func()) (func(), error) {
	c, err := newCombo(combo)
	if err != nil {
		return nil, err
	}
	log.Printf("hotkey: listening for %s", combo)

	evChan := gohook.Start()
	if evChan == nil {
		return nil, fmt.Errorf("hotkey: gohook.Start returned no event channel")
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
				continue
			}
			if c.feed(ev.Kind == gohook.KeyDown, ev.Rawcode) {
				log.Printf("hotkey: %s pressed", combo)
				if trigger != nil {
					trigger()
				}
			}
		}
		log.Printf("hotkey: event channel closed")
	}()
	return gohook.End, nil
}

type key struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// combo tracks which keys of a combination are currently held.
type combo struct {
	mu   sync.Mutex
	keys []key
}

func newCombo(hk string) (*combo, error) {
	c := &combo{}
	for _, name := range parseHotkey(hk) {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", hk, name)
		}
		c.keys = append(c.keys, key{name: name, rawcodes: codes})
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("hotkey %q: no keys", hk)
	}
	return c, nil
}

// feed records one key event and reports whether it completed the combo.
// Completion clears the held state so holding the keys fires once.
func (c *combo) feed(down bool, rawcode uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.keys {
		for _, rc := range c.keys[i].rawcodes {
			if rc == rawcode {
				c.keys[i].pressed = down
			}
		}
	}
	if !down {
		return false
	}
	for _, k := range c.keys {
		if !k.pressed {
			return false
		}
	}
	for i := range c.keys {
		c.keys[i].pressed = false
	}
	return true
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hk string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hk), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "option":
			part = "alt"
		case "win", "super", "command":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

var namedKeys = map[string][]uint16{
	// Modifiers map to both left and right virtual-key variants.
	"ctrl":  {162, 163},
	"alt":   {164, 165},
	"shift": {160, 161},
	"cmd":   {91, 92},

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},

	"printscreen": {44},
}

// keyNameToRawcodes maps a key name to its virtual-key rawcodes.
func keyNameToRawcodes(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))
	if codes, ok := namedKeys[name]; ok {
		return codes
	}
	if len(name) == 1 {
		switch ch := name[0]; {
		case ch >= 'a' && ch <= 'z':
			return []uint16{uint16(ch-'a') + 65}
		case ch >= '0' && ch <= '9':
			return []uint16{uint16(ch-'0') + 48}
		}
	}
	var n int
	if _, err := fmt.Sscanf(name, "f%d", &n); err == nil && n >= 1 && n <= 24 && name == fmt.Sprintf("f%d", n) {
		return []uint16{uint16(111 + n)}
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", name)
	return nil
}
