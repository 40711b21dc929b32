package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/shopspring/decimal"
)

// Catalog is the read side of event storage used by the storefront.
type Catalog interface {
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// MemoryCatalog is an immutable in-process catalog.
type MemoryCatalog struct {
	events []model.Event
	byID   map[string]int
}

// NewMemoryCatalog validates every event and indexes them by id.
func NewMemoryCatalog(events []model.Event) (*MemoryCatalog, error) {
	c := &MemoryCatalog{byID: make(map[string]int, len(events))}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate event id %q", e.ID)
		}
		c.byID[e.ID] = len(c.events)
		c.events = append(c.events, cloneEvent(e))
	}
	return c, nil
}

// List returns every event in catalog order.
func (c *MemoryCatalog) List(_ context.Context) ([]model.Event, error) {
	out := make([]model.Event, len(c.events))
	for i, e := range c.events {
		out[i] = cloneEvent(e)
	}
	return out, nil
}

// GetByID returns a copy of one event or ErrNotFound.
func (c *MemoryCatalog) GetByID(_ context.Context, id string) (*model.Event, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	e := cloneEvent(c.events[i])
	return &e, nil
}

func cloneEvent(e model.Event) model.Event {
	e.Categories = append([]model.TicketCategory(nil), e.Categories...)
	return e
}

func intPtr(n int) *int { return &n }

// SampleEvents is the catalog served when no database is configured.
func SampleEvents() []model.Event {
	return []model.Event{
		{
			ID:            "konser-musik-merdeka-vol-2",
			Name:          "Konser Musik Merdeka Vol. 2",
			Location:      "Jakarta Fairground",
			DateDisplay:   "17 Agustus 2024",
			TimeDisplay:   "19:00 WIB",
			OrganizerName: "Merdeka Fest Organizer",
			Categories: []model.TicketCategory{
				{ID: "regular", Name: "Regular Pass", Price: decimal.NewFromInt(199000), Description: "Akses ke area festival regular.", MaxQuantity: intPtr(10), Availability: model.Available},
				{ID: "vip", Name: "VIP Pass", Price: decimal.NewFromInt(499000), Description: "Akses ke area VIP dekat panggung, termasuk merchandise eksklusif.", MaxQuantity: intPtr(4), Availability: model.AlmostSold},
			},
		},
		{
			ID:            "international-tech-summit-2024",
			Name:          "International Tech Summit 2024",
			Location:      "Bali Convention Center",
			DateDisplay:   "20-22 September 2024",
			TimeDisplay:   "09:00 - Selesai",
			OrganizerName: "Global Tech Network",
			Categories: []model.TicketCategory{
				{ID: "earlybird", Name: "Early Bird Pass (until 1 Aug)", Price: decimal.NewFromInt(1200000), Availability: model.AlmostSold},
				{ID: "standard", Name: "Standard Pass", Price: decimal.NewFromInt(1500000), Availability: model.Available},
				{ID: "pro", Name: "Professional Pass + Workshop", Price: decimal.NewFromInt(2500000), Description: "Termasuk akses ke workshop eksklusif.", Availability: model.Available},
			},
		},
		{
			ID:            "festival-kuliner-nusantara",
			Name:          "Festival Kuliner Nusantara",
			Location:      "Alun-Alun Kota Bandung",
			DateDisplay:   "12-14 Juli 2024",
			TimeDisplay:   "10:00 - 22:00 WIB",
			OrganizerName: "Pesona Kuliner ID",
			Categories: []model.TicketCategory{
				{ID: "entry", Name: "Tiket Masuk", Price: decimal.Zero, Description: "Akses gratis ke area festival.", Availability: model.Available},
				{ID: "voucher", Name: "Voucher Kuliner Rp50.000", Price: decimal.NewFromInt(45000), Description: "Dapatkan diskon untuk pembelian makanan.", Availability: model.SoldOut},
			},
		},
		{
			ID:          "seminar-keamanan-siber-nasional",
			Name:        "Seminar Keamanan Siber Nasional",
			Location:    "Hotel Borobudur, Jakarta",
			DateDisplay: "28 November 2024",
			TimeDisplay: "08:30 WIB",
			Categories: []model.TicketCategory{
				{ID: "government", Name: "Peserta Pemerintahan", Price: decimal.NewFromInt(250000), Description: "Dengan surat tugas.", Availability: model.Available},
				{ID: "public", Name: "Peserta Umum/Swasta", Price: decimal.NewFromInt(500000), Availability: model.Available},
			},
		},
		{
			ID:            "teater-klasik-hamlet",
			Name:          "Pertunjukan Teater Klasik: Hamlet",
			Location:      "Gedung Kesenian Jakarta",
			DateDisplay:   "19 Oktober 2024",
			TimeDisplay:   "20:00 WIB",
			OrganizerName: "Teater Panggung Merah",
			Categories: []model.TicketCategory{
				{ID: "balcony", Name: "Balkon", Price: decimal.NewFromInt(150000), Availability: model.AlmostSold},
				{ID: "tribune", Name: "Tribun", Price: decimal.NewFromInt(250000), Availability: model.Available},
				{ID: "vip", Name: "VIP", Price: decimal.NewFromInt(400000), Availability: model.SoldOut},
			},
		},
	}
}
