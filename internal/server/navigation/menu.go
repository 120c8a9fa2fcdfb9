package navigation

// Link is a navbar entry.
type Link struct {
	Label    string
	Intent   Intent
	External bool
}

// Navbar lists the public navigation in display order. Section anchors
// match the ids on the home page.
var Navbar = []Link{
	{Label: "Tentang", Intent: Anchor("tentang")},
	{Label: "Visi Misi", Intent: Anchor("visi-misi")},
	{Label: "Anggota", Intent: Anchor("anggota")},
	{Label: "Program", Intent: Anchor("program")},
	{Label: "Kegiatan", Intent: Anchor("kegiatan")},
}

// MenuItem is a Link resolved for one page.
type MenuItem struct {
	Label    string
	Href     string
	External bool
	// Deferred marks links that change route before scrolling.
	Deferred bool
}

// Menu resolves links for a page at currentPath.
func Menu(links []Link, currentPath string) []MenuItem {
	items := make([]MenuItem, 0, len(links))
	for _, l := range links {
		if l.External {
			items = append(items, MenuItem{Label: l.Label, Href: l.Intent.Target, External: true})
			continue
		}
		a := Resolve(l.Intent, currentPath)
		items = append(items, MenuItem{Label: l.Label, Href: a.Href(), Deferred: a.Delay > 0})
	}
	return items
}
