package fleet

// makeEntry is one manufacturer in the fixed catalog: its model list and the
// monthly lease price band in whole dollars.
type makeEntry struct {
	Name     string
	Models   []string
	MinLease int
	MaxLease int
}

var catalog = []makeEntry{
	{Name: "Toyota", Models: []string{"Camry", "Corolla", "RAV4"}, MinLease: 450, MaxLease: 700},
	{Name: "Honda", Models: []string{"Civic", "Accord", "CR-V"}, MinLease: 420, MaxLease: 680},
	{Name: "Ford", Models: []string{"F-150", "Escape", "Explorer"}, MinLease: 500, MaxLease: 850},
	{Name: "Chevrolet", Models: []string{"Malibu", "Equinox", "Silverado"}, MinLease: 430, MaxLease: 720},
	{Name: "Nissan", Models: []string{"Altima", "Sentra", "Rogue"}, MinLease: 400, MaxLease: 650},
	{Name: "BMW", Models: []string{"3 Series", "5 Series", "X3"}, MinLease: 850, MaxLease: 1400},
	{Name: "Mercedes-Benz", Models: []string{"C-Class", "E-Class", "GLC"}, MinLease: 900, MaxLease: 1500},
}

var colors = []string{"White", "Black", "Silver", "Gray", "Blue", "Red", "Green"}

var lesseeNames = []string{
	"James Smith",
	"Maria Garcia",
	"Robert Johnson",
	"Linda Williams",
	"Michael Brown",
	"Patricia Davis",
	"David Miller",
	"Jennifer Wilson",
}
