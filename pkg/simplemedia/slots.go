package simplemedia

import "path"

// Slot names used by entity kinds. They double as upload form field names.
const (
	SlotPoster  = "poster"
	SlotVideo   = "video"
	SlotGallery = "gallery"
	SlotImage   = "image"
)

func folder(parts ...string) func(string) string {
	return func(category string) string {
		elems := make([]string, 0, len(parts))
		for _, p := range parts {
			if p == "{category}" {
				if category == "" {
					category = "uncategorized"
				}
				p = category
			}
			elems = append(elems, p)
		}
		return path.Join(elems...)
	}
}

var kindSlots = map[Kind][]SlotSpec{
	KindEvent: {
		{Name: SlotPoster, Kind: SlotSingle, Media: MediaImage, Folder: folder("programs", "{category}")},
		{Name: SlotVideo, Kind: SlotSingle, Media: MediaVideo, Folder: folder("programs", "{category}", "videos")},
		{Name: SlotGallery, Kind: SlotList, Media: MediaImage, Folder: folder("programs", "{category}", "gallery")},
	},
	KindProgram: {
		{Name: SlotImage, Kind: SlotSingle, Media: MediaImage, Folder: folder("education", "{category}")},
		{Name: SlotGallery, Kind: SlotList, Media: MediaImage, Folder: folder("education", "{category}", "gallery")},
	},
	KindFounder: {
		{Name: SlotImage, Kind: SlotSingle, Media: MediaImage, Folder: folder("founder")},
		{Name: SlotGallery, Kind: SlotList, Media: MediaImage, Folder: folder("founder", "gallery")},
	},
	KindHistory: {
		{Name: SlotImage, Kind: SlotSingle, Media: MediaImage, Folder: folder("history")},
		{Name: SlotGallery, Kind: SlotList, Media: MediaImage, Folder: folder("history", "gallery")},
	},
	KindTeam: {
		{Name: SlotImage, Kind: SlotSingle, Media: MediaImage, Folder: folder("team", "{category}")},
	},
}

// SlotsFor returns the slot table of kind.
func SlotsFor(kind Kind) []SlotSpec {
	return kindSlots[kind]
}

// LookupSlot finds a slot of kind by name.
func LookupSlot(kind Kind, name string) (SlotSpec, bool) {
	for _, s := range kindSlots[kind] {
		if s.Name == name {
			return s, true
		}
	}
	return SlotSpec{}, false
}
