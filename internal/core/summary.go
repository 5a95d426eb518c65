package core

// EnergyAmount is the quantity and cost of one event inside a monthly rollup.
type EnergyAmount struct {
	Amount float64 `json:"amount"`
	Cost   float64 `json:"cost"`
}

// MonthlyRollup summarises one calendar month of records.
// Mileage is signed: inconsistent odometer readings are passed through.
type MonthlyRollup struct {
	Month            string         `json:"month"` // "2006-01"
	Mileage          float64        `json:"mileage"`
	RefuelingRecords []EnergyAmount `json:"refuelingRecords"`
	ChargingRecords  []EnergyAmount `json:"chargingRecords"`
}

// TotalCost returns the summed cost of both energy types.
func (m MonthlyRollup) TotalCost() float64 {
	var total float64
	for _, r := range m.RefuelingRecords {
		total += r.Cost
	}
	for _, r := range m.ChargingRecords {
		total += r.Cost
	}
	return total
}

func (m MonthlyRollup) TotalOil() float64 {
	return sumAmounts(m.RefuelingRecords)
}

func (m MonthlyRollup) TotalElectric() float64 {
	return sumAmounts(m.ChargingRecords)
}

func sumAmounts(list []EnergyAmount) float64 {
	var total float64
	for _, a := range list {
		total += a.Amount
	}
	return total
}

// ReportRecord is a record embedded in a yearly report. UnitPrice is set for
// refueling extrema only. ID and KilometerOfDisplay are dropped when a report
// is prepared for sharing.
type ReportRecord struct {
	ID                 int64      `json:"id,omitempty"`
	Type               EnergyType `json:"type"`
	Oil                float64    `json:"oil"`
	Electric           float64    `json:"electric"`
	Cost               float64    `json:"cost"`
	KilometerOfDisplay float64    `json:"kilometerOfDisplay,omitempty"`
	Date               RecordDate `json:"date"`
	UnitPrice          *float64   `json:"unitPrice,omitempty"`
}

// NewReportRecord copies r. withUnitPrice attaches cost/oil.
func NewReportRecord(r EnergyRecord, withUnitPrice bool) *ReportRecord {
	rr := &ReportRecord{
		ID:                 r.ID,
		Type:               r.Type,
		Oil:                r.Oil,
		Electric:           r.Electric,
		Cost:               r.Cost,
		KilometerOfDisplay: r.KilometerOfDisplay,
		Date:               r.Date,
	}
	if withUnitPrice {
		p := r.UnitPrice()
		rr.UnitPrice = &p
	}
	return rr
}

// PricePoint is one sample of the fuel price trend.
type PricePoint struct {
	Date  RecordDate `json:"date"`
	Price float64    `json:"price"`
}

// YearlyReport aggregates one calendar year of records.
type YearlyReport struct {
	Year              int           `json:"year"`
	TotalCost         float64       `json:"totalCost"`
	TotalMileage      float64       `json:"totalMileage"`
	AvgCostPer100Km   float64       `json:"avgCostPer100Km"`
	TotalOil          float64       `json:"totalOil"`
	TotalElectric     float64       `json:"totalElectric"`
	RefuelingCount    int           `json:"refuelingCount"`
	ChargingCount     int           `json:"chargingCount"`
	MaxPriceRecord    *ReportRecord `json:"maxPriceRecord"`
	MinPriceRecord    *ReportRecord `json:"minPriceRecord"`
	MaxVolumeRecord   *ReportRecord `json:"maxVolumeRecord"`
	MaxElectricRecord *ReportRecord `json:"maxElectricRecord"`
	EstimatedCapacity float64       `json:"estimatedCapacity"`
	ElectricValues    []float64     `json:"electricValues"`
	AvgFuelPrice      float64       `json:"avgFuelPrice"`
	FuelPriceTrend    []PricePoint  `json:"fuelPriceTrend"`
}

// Rounded returns a copy with monetary and volume figures rounded to two
// decimals for presentation. The receiver is not modified.
func (y YearlyReport) Rounded() YearlyReport {
	out := y
	out.TotalCost = Round2(y.TotalCost)
	out.TotalMileage = Round2(y.TotalMileage)
	out.AvgCostPer100Km = Round2(y.AvgCostPer100Km)
	out.TotalOil = Round2(y.TotalOil)
	out.TotalElectric = Round2(y.TotalElectric)
	out.EstimatedCapacity = Round2(y.EstimatedCapacity)
	out.AvgFuelPrice = Round2(y.AvgFuelPrice)
	out.MaxPriceRecord = y.MaxPriceRecord.rounded()
	out.MinPriceRecord = y.MinPriceRecord.rounded()
	out.MaxVolumeRecord = y.MaxVolumeRecord.rounded()
	out.MaxElectricRecord = y.MaxElectricRecord.rounded()
	out.ElectricValues = make([]float64, len(y.ElectricValues))
	for i, v := range y.ElectricValues {
		out.ElectricValues[i] = Round2(v)
	}
	out.FuelPriceTrend = append([]PricePoint{}, y.FuelPriceTrend...)
	return out
}

func (r *ReportRecord) rounded() *ReportRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Oil = Round2(r.Oil)
	c.Electric = Round2(r.Electric)
	c.Cost = Round2(r.Cost)
	if r.UnitPrice != nil {
		p := Round2(*r.UnitPrice)
		c.UnitPrice = &p
	}
	return &c
}
