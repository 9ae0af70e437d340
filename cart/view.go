package cart

// ViewItem is one cart line as it should be displayed: server data with any
// pending local edits already applied.
type ViewItem struct {
	Key       string  `json:"key"`
	ProductID int     `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
	Pending   bool    `json:"pending,omitempty"`
}

// View is the display-ready cart: pending removals dropped, pending quantity
// overrides applied, line totals recomputed from the displayed quantities.
type View struct {
	Items    []ViewItem `json:"items"`
	Count    int        `json:"count"`
	Subtotal float64    `json:"subtotal"`
	Syncing  bool       `json:"syncing"`
	Error    string     `json:"error,omitempty"`
}

// View builds the current display state. It never blocks on the network.
func (s *Syncer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Items:   []ViewItem{},
		Syncing: s.reading || s.mutating > 0,
	}
	if s.lastErr != nil {
		v.Error = s.lastErr.Error()
	}
	if s.serverCart == nil {
		return v
	}

	for _, it := range s.serverCart.Items() {
		key := it.Key()
		if key != "" && s.pendingHidden[key] {
			continue
		}
		qty := it.Quantity()
		pending := false
		if pq, ok := s.pendingQty[key]; ok && key != "" {
			qty = pq
			pending = true
		}
		unit := it.UnitPrice()
		v.Items = append(v.Items, ViewItem{
			Key:       key,
			ProductID: it.ProductID(),
			Name:      it.Name(),
			Image:     it.Image(),
			Quantity:  qty,
			UnitPrice: unit,
			LineTotal: unit * float64(qty),
			Pending:   pending,
		})
		v.Count += qty
	}
	for _, vi := range v.Items {
		v.Subtotal += vi.LineTotal
	}
	return v
}
