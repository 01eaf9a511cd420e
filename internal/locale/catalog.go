package locale

import (
	"golang.org/x/text/language"

	"github.com/nao1215/plantdoc/internal/model"
)

// DefaultCatalog returns the built-in demo samples for tag: a healthy leaf,
// mildew, nitrogen deficiency and leaf spot.
func DefaultCatalog(tag language.Tag) *model.Catalog {
	if base, _ := tag.Base(); base.String() == "fr" {
		return model.MustCatalog(frenchSamples()...)
	}
	return model.MustCatalog(englishSamples()...)
}

func frenchSamples() []model.DemoSample {
	return []model.DemoSample{
		{
			Key: "healthy", Label: "Feuille saine", Emoji: "🍃",
			Record: model.DiagnosticRecord{
				Title: "Sain", Status: model.StatusHealthy, Confidence: 95,
				Description: model.TextDescription("Continuez à observer régulièrement vos plants, maintenez un arrosage adapté. Vos plants semblent en bonne santé, bravo !"),
				Predictions: []model.Prediction{
					{Name: "Feuille saine", Probability: 95},
					{Name: "Légère déshydratation", Probability: 3},
					{Name: "Autre", Probability: 2},
				},
			},
		},
		{
			Key: "mildiou", Label: "Mildiou", Emoji: "🍂",
			Record: model.DiagnosticRecord{
				Title: "Mildiou", Status: model.StatusDanger, Confidence: 88,
				Description: model.TextDescription("Isolez immédiatement la plante des autres cultures. Retirez les feuilles infectées et détruisez-les. Consultez un expert pour un traitement fongicide adapté."),
				Predictions: []model.Prediction{
					{Name: "Mildiou", Probability: 88},
					{Name: "Carence en azote", Probability: 10},
					{Name: "Autre", Probability: 2},
				},
			},
		},
		{
			Key: "carence", Label: "Carence", Emoji: "🌾",
			Record: model.DiagnosticRecord{
				Title: "Carence en azote", Status: model.StatusWarning, Confidence: 72,
				Description: model.TextDescription("Faites une analyse du sol pour confirmer la carence. Apportez un engrais riche en azote. Surveillez l'évolution dans les jours suivants."),
				Predictions: []model.Prediction{
					{Name: "Carence en azote", Probability: 72},
					{Name: "Vieillissement naturel", Probability: 18},
					{Name: "Autre", Probability: 10},
				},
			},
		},
		{
			Key: "tache", Label: "Tache foliaire", Emoji: "🍁",
			Record: model.DiagnosticRecord{
				Title: "Tache foliaire", Status: model.StatusWarning, Confidence: 55,
				Description: model.TextDescription("Observez attentivement : le diagnostic est incertain. Isolez la plante par précaution et consultez un expert."),
				Predictions: []model.Prediction{
					{Name: "Tache foliaire", Probability: 55},
					{Name: "Brûlure solaire", Probability: 30},
					{Name: "Mildiou", Probability: 15},
				},
			},
		},
	}
}

func englishSamples() []model.DemoSample {
	return []model.DemoSample{
		{
			Key: "healthy", Label: "Healthy leaf", Emoji: "🍃",
			Record: model.DiagnosticRecord{
				Title: "Healthy", Status: model.StatusHealthy, Confidence: 95,
				Description: model.TextDescription("Keep observing your plants regularly and water them appropriately. Your plants look healthy, well done!"),
				Predictions: []model.Prediction{
					{Name: "Healthy leaf", Probability: 95},
					{Name: "Slight dehydration", Probability: 3},
					{Name: "Other", Probability: 2},
				},
			},
		},
		{
			Key: "mildiou", Label: "Mildew", Emoji: "🍂",
			Record: model.DiagnosticRecord{
				Title: "Mildew", Status: model.StatusDanger, Confidence: 88,
				Description: model.TextDescription("Isolate the plant from other crops immediately. Remove the infected leaves and destroy them. Ask an expert for a suitable fungicide treatment."),
				Predictions: []model.Prediction{
					{Name: "Mildew", Probability: 88},
					{Name: "Nitrogen deficiency", Probability: 10},
					{Name: "Other", Probability: 2},
				},
			},
		},
		{
			Key: "carence", Label: "Deficiency", Emoji: "🌾",
			Record: model.DiagnosticRecord{
				Title: "Nitrogen deficiency", Status: model.StatusWarning, Confidence: 72,
				Description: model.TextDescription("Run a soil test to confirm the deficiency. Apply a nitrogen-rich fertilizer. Watch how the plant evolves over the next days."),
				Predictions: []model.Prediction{
					{Name: "Nitrogen deficiency", Probability: 72},
					{Name: "Natural ageing", Probability: 18},
					{Name: "Other", Probability: 10},
				},
			},
		},
		{
			Key: "tache", Label: "Leaf spot", Emoji: "🍁",
			Record: model.DiagnosticRecord{
				Title: "Leaf spot", Status: model.StatusWarning, Confidence: 55,
				Description: model.TextDescription("Look closely: the diagnosis is uncertain. Isolate the plant as a precaution and consult an expert."),
				Predictions: []model.Prediction{
					{Name: "Leaf spot", Probability: 55},
					{Name: "Sunburn", Probability: 30},
					{Name: "Mildew", Probability: 15},
				},
			},
		},
	}
}
