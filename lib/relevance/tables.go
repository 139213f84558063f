package relevance

// The tables below are product policy, hand-tuned against real listing
// noise from the supported marketplaces. Changing them silently changes
// which results users see.

// canonical brand -> aliases that imply the brand when seen in a query
// or title. Aliases include the product lines a buyer types instead of
// the brand itself.
var brandAliases = map[string][]string{
	"apple":      {"apple", "iphone", "ipad", "macbook", "imac", "airpods", "watch ultra"},
	"samsung":    {"samsung", "galaxy"},
	"oneplus":    {"oneplus", "nord"},
	"xiaomi":     {"xiaomi", "redmi", "poco", "mi"},
	"realme":     {"realme", "narzo"},
	"oppo":       {"oppo", "reno"},
	"vivo":       {"vivo", "iqoo"},
	"motorola":   {"motorola", "moto"},
	"nothing":    {"nothing"},
	"google":     {"google", "pixel"},
	"sony":       {"sony", "playstation", "bravia"},
	"lg":         {"lg"},
	"hp":         {"hp", "pavilion", "omen", "victus"},
	"dell":       {"dell", "inspiron", "xps", "alienware"},
	"lenovo":     {"lenovo", "thinkpad", "ideapad", "legion"},
	"asus":       {"asus", "zenbook", "vivobook", "rog"},
	"acer":       {"acer", "aspire", "predator", "nitro"},
	"boat":       {"boat", "airdopes", "rockerz"},
	"jbl":        {"jbl"},
	"noise":      {"noise"},
	"bose":       {"bose"},
	"sennheiser": {"sennheiser"},
	"canon":      {"canon", "eos"},
	"nikon":      {"nikon"},
	"dyson":      {"dyson"},
	"philips":    {"philips"},
	"whirlpool":  {"whirlpool"},
	"voltas":     {"voltas"},
	"haier":      {"haier"},
	"panasonic":  {"panasonic"},
	"tcl":        {"tcl"},
}

var colorTokens = map[string]struct{}{
	"black": {}, "white": {}, "blue": {}, "red": {}, "green": {},
	"yellow": {}, "purple": {}, "pink": {}, "gold": {}, "silver": {},
	"grey": {}, "gray": {}, "graphite": {}, "midnight": {}, "starlight": {},
	"titanium": {}, "cream": {}, "lavender": {}, "mint": {}, "orange": {},
	"bronze": {}, "beige": {}, "teal": {}, "cyan": {}, "violet": {},
}

var electronicsKeywords = []string{
	"phone", "smartphone", "mobile", "laptop", "tablet", "tv",
	"television", "monitor", "camera", "headphone", "headphones",
	"earbuds", "earphones", "speaker", "soundbar", "console",
	"router", "smartwatch", "watch", "refrigerator", "fridge",
	"washing", "microwave", "ac", "conditioner", "processor",
	"gpu", "graphics", "ssd", "keyboard", "mouse",
}

// titles carrying these are categorically accessories, never the
// device itself
var accessoryKeywords = []string{
	"case", "cover", "protector", "tempered", "glass guard",
	"screen guard", "charger", "charging cable", "adapter", "cable",
	"skin", "sticker", "holder", "mount", "stand", "strap",
	"band", "pouch", "sleeve", "back cover", "flip cover",
	"power bank", "earbuds case", "lens protector", "stylus",
	"replacement", "spare",
}

var apparelKeywords = []string{
	"tshirt", "t-shirt", "shirt", "hoodie", "jacket", "jeans",
	"trousers", "shorts", "saree", "kurta", "dress", "shoes",
	"sneakers", "sandals", "slippers", "socks", "cap", "bag",
	"backpack", "wallet", "belt",
}
