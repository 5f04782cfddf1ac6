package state

// EquipmentSlot identifies where an item can be worn. At most one item
// occupies a slot.
type EquipmentSlot string

const (
	SlotWeapon    EquipmentSlot = "weapon"
	SlotHead      EquipmentSlot = "head"
	SlotChest     EquipmentSlot = "chest"
	SlotLegs      EquipmentSlot = "legs"
	SlotFeet      EquipmentSlot = "feet"
	SlotHands     EquipmentSlot = "hands"
	SlotAccessory EquipmentSlot = "accessory"
	SlotArtifact  EquipmentSlot = "artifact"
)

var equipmentSlots = map[EquipmentSlot]bool{
	SlotWeapon: true, SlotHead: true, SlotChest: true, SlotLegs: true,
	SlotFeet: true, SlotHands: true, SlotAccessory: true, SlotArtifact: true,
}

// ValidSlot reports whether s names a known equipment slot.
func ValidSlot(s EquipmentSlot) bool {
	return equipmentSlots[s]
}

// Item is an inventory record. Items with the same id are a single
// entry whose quantity is incremented, never duplicate entries.
type Item struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Type       string         `json:"type,omitempty"`
	Rarity     string         `json:"rarity,omitempty"`
	Quantity   int            `json:"quantity"`
	BonusStats map[string]int `json:"bonus_stats,omitempty"`
	Effects    []string       `json:"effects,omitempty"`
}

// AddItem merges the incoming item into the inventory: same-id entries
// get their quantity incremented, otherwise the item is appended.
// Quantities below 1 default to 1. Returns true when a new entry was
// created. Capacity is deliberately not enforced here.
func (inv *Inventory) AddItem(item Item) bool {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range inv.Items {
		if inv.Items[i].ID == item.ID {
			inv.Items[i].Quantity += item.Quantity
			return false
		}
	}
	inv.Items = append(inv.Items, item)
	return true
}

// RemoveItem decrements the quantity of the item with the given id,
// deleting the entry when it reaches zero. Returns false when the item
// is not present.
func (inv *Inventory) RemoveItem(id string, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}
	for i := range inv.Items {
		if inv.Items[i].ID != id {
			continue
		}
		inv.Items[i].Quantity -= quantity
		if inv.Items[i].Quantity < 1 {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
		}
		return true
	}
	return false
}

// slotForItemType maps item types to their default equipment slot when
// the equip delta does not name one.
var slotForItemType = map[string]EquipmentSlot{
	"weapon":    SlotWeapon,
	"sword":     SlotWeapon,
	"saber":     SlotWeapon,
	"spear":     SlotWeapon,
	"helmet":    SlotHead,
	"armor":     SlotChest,
	"robe":      SlotChest,
	"leggings":  SlotLegs,
	"boots":     SlotFeet,
	"gloves":    SlotHands,
	"ring":      SlotAccessory,
	"pendant":   SlotAccessory,
	"talisman":  SlotAccessory,
	"artifact":  SlotArtifact,
}

// Equip moves one unit of the named inventory item into the slot.
// A previously equipped item in that slot returns to the inventory.
// Returns false when the item is missing or no slot can be resolved.
func (gs *GameState) Equip(itemID string, slot EquipmentSlot) bool {
	item := gs.FindItem(itemID)
	if item == nil {
		return false
	}
	if slot == "" {
		slot = slotForItemType[item.Type]
	}
	if !ValidSlot(slot) {
		return false
	}

	equipped := *item
	equipped.Quantity = 1
	gs.Inventory.RemoveItem(itemID, 1)

	if gs.EquippedItems == nil {
		gs.EquippedItems = make(map[EquipmentSlot]Item)
	}
	if prev, ok := gs.EquippedItems[slot]; ok {
		gs.Inventory.AddItem(prev)
	}
	gs.EquippedItems[slot] = equipped
	return true
}

// Unequip returns the item in the slot to the inventory. Returns false
// when the slot is empty.
func (gs *GameState) Unequip(slot EquipmentSlot) bool {
	item, ok := gs.EquippedItems[slot]
	if !ok {
		return false
	}
	delete(gs.EquippedItems, slot)
	gs.Inventory.AddItem(item)
	return true
}
