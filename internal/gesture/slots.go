package gesture

import (
	"fmt"

	"github.com/ayusman/kinectkeys/internal/input"
)

// Slot identifies a holdable gesture whose key stays down while the pose is held.
type Slot int

const (
	SlotRightArm Slot = iota
	SlotLeftArm
	SlotArmRaised
	SlotRightHand
	SlotLeftHand
	SlotLeftFoot
	SlotRightFoot
	// NumSlots is the number of holdable slots.
	NumSlots
)

var slotNames = [NumSlots]string{
	"right_arm",
	"left_arm",
	"arm_raised",
	"right_hand",
	"left_hand",
	"left_foot",
	"right_foot",
}

func (s Slot) String() string {
	if s < 0 || s >= NumSlots {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// slotState is the bookkeeping for one holdable slot.
type slotState struct {
	active bool            // predicate held during the current evaluation
	down   bool            // key-down issued and not yet released
	keys   []input.KeyCode // keys that were pressed, released in reverse order
}

// HoldState maps every holdable slot to its held flag. It is created once with
// every slot present and never reallocated; each down slot remembers exactly
// which keys it pressed so the matching release can always be issued.
type HoldState struct {
	slots map[Slot]*slotState
}

// NewHoldState creates a HoldState with every slot released.
func NewHoldState() *HoldState {
	h := &HoldState{slots: make(map[Slot]*slotState, NumSlots)}
	for s := Slot(0); s < NumSlots; s++ {
		h.slots[s] = &slotState{}
	}
	return h
}

// IsHeld reports whether slot s has a key-down outstanding.
func (h *HoldState) IsHeld(s Slot) bool {
	st, ok := h.slots[s]
	return ok && st.down
}

// Held returns the slots with a key-down outstanding, in slot order.
func (h *HoldState) Held() []Slot {
	var held []Slot
	for s := Slot(0); s < NumSlots; s++ {
		if h.slots[s].down {
			held = append(held, s)
		}
	}
	return held
}

// beginFrame clears every active flag.
func (h *HoldState) beginFrame() {
	for _, st := range h.slots {
		st.active = false
	}
}

// activate marks slot s active for this evaluation. It returns whether a
// key-down must be issued, and false for unknown slots.
func (h *HoldState) activate(s Slot) (needsPress, ok bool) {
	st, ok := h.slots[s]
	if !ok {
		return false, false
	}
	st.active = true
	return !st.down, true
}

// pressed records that keys went down for slot s.
func (h *HoldState) pressed(s Slot, keys []input.KeyCode) {
	st := h.slots[s]
	st.down = true
	st.keys = keys
}

// release clears slot s and returns the keys that must go up, in release order.
func (h *HoldState) release(s Slot) []input.KeyCode {
	st := h.slots[s]
	keys := make([]input.KeyCode, len(st.keys))
	for i, k := range st.keys {
		keys[len(st.keys)-1-i] = k
	}
	st.down = false
	st.keys = nil
	return keys
}

// stale returns the slots that are down but were not active this evaluation.
func (h *HoldState) stale() []Slot {
	var out []Slot
	for s := Slot(0); s < NumSlots; s++ {
		st := h.slots[s]
		if st.down && !st.active {
			out = append(out, s)
		}
	}
	return out
}
