package store

import "github.com/energywise/energywise/pkg/types"

var sampleMonths = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func sampleSeries(consumption, generation []float64) []types.MonthlyDatum {
	data := make([]types.MonthlyDatum, len(consumption))
	for i, c := range consumption {
		data[i] = types.MonthlyDatum{Month: sampleMonths[i], ConsumptionKWH: c}
		if generation != nil {
			data[i].GenerationKWH = types.Float64(generation[i])
		}
	}
	return data
}

// SampleResidences returns the demo residences: a house with solar and a
// rented apartment without.
func SampleResidences() []types.Residence {
	return []types.Residence{
		{
			ID:       1,
			Name:     "Casa Principal",
			Address:  "Rua das Flores, 123",
			HasSolar: true,
			SolarSystem: &types.SolarSystem{
				PowerKWP:         8.5,
				PanelType:        "Monocristalino",
				InverterType:     "Huawei SUN2000-8KTL-M1",
				InstallationDate: "2022-03-15",
			},
			Tariff: types.Tariff{
				Group:      "B",
				Subgroup:   "B1",
				Modality:   types.TariffModalityConventional,
				CostPerKWH: 0.78,
			},
			Data: sampleSeries(
				[]float64{450, 420, 430, 400, 380, 360, 370, 390, 410, 440, 460, 480},
				[]float64{550, 580, 620, 650, 600, 550, 530, 580, 610, 630, 590, 540},
			),
			Readings: []types.Reading{
				{ID: "5f0c6a1e-0c1b-4c55-9d1e-2a9c2b1f0a05", Date: "2024-05-19", ReadingKWH: 12321.45, UsageKWH: 22.12, SubmittedBy: types.SubmittedByManual},
				{ID: "5f0c6a1e-0c1b-4c55-9d1e-2a9c2b1f0a04", Date: "2024-05-18", ReadingKWH: 12299.33, UsageKWH: 19.87, SubmittedBy: types.SubmittedByAutomatic},
				{ID: "5f0c6a1e-0c1b-4c55-9d1e-2a9c2b1f0a03", Date: "2024-05-17", ReadingKWH: 12279.46, UsageKWH: 25.01, SubmittedBy: types.SubmittedByManual},
				{ID: "5f0c6a1e-0c1b-4c55-9d1e-2a9c2b1f0a02", Date: "2024-05-16", ReadingKWH: 12254.45, UsageKWH: 21.50, SubmittedBy: types.SubmittedByAutomatic},
				{ID: "5f0c6a1e-0c1b-4c55-9d1e-2a9c2b1f0a01", Date: "2024-05-15", ReadingKWH: 12232.95, UsageKWH: 18.90, SubmittedBy: types.SubmittedByAutomatic},
			},
		},
		{
			ID:       2,
			Name:     "Apartamento (Alugado)",
			Address:  "Av. Central, 456",
			HasSolar: false,
			Tariff: types.Tariff{
				Group:      "B",
				Subgroup:   "B1",
				Modality:   types.TariffModalityWhite,
				CostPerKWH: 0.82,
			},
			Data: sampleSeries(
				[]float64{250, 230, 240, 220, 210, 200, 215, 225, 235, 245, 255, 260},
				nil,
			),
			Readings: []types.Reading{},
		},
	}
}
