package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/parser"
	"github.com/aluiziolira/go-scrape-products/render"
)

var errNodeMissing = errors.New("node not found")

// Catalog characteristic labels mapped to product fields.
var characteristicLabels = map[string]string{
	"Dénomination générique":                    models.FieldGenericName,
	"Quantité":                                  models.FieldQuantity,
	"Conditionnement":                           models.FieldPackaging,
	"Marques":                                   models.FieldBrands,
	"Catégories":                                models.FieldCategories,
	"Labels, certifications, récompenses":       models.FieldLabels,
	"Origine des ingrédients":                   models.FieldIngredientsOrigin,
	"Lieux de fabrication ou de transformation": models.FieldManufacturingPlaces,
	"Code de traçabilité":                       models.FieldTraceabilityCode,
	"Lien vers la page du produit sur le site officiel du fabricant": models.FieldManufacturerURL,
	"Magasins":      models.FieldStores,
	"Pays de vente": models.FieldCountries,
}

// nutrient labels are matched by substring, in this order.
var nutrientLabels = []struct {
	label string
	field string
}{
	{"Matières grasses / Lipides", models.FieldFat},
	{"Acides gras saturés", models.FieldSaturatedFat},
	{"Sucres", models.FieldSugars},
	{"Sel", models.FieldSalt},
}

const (
	nutritionHeading  = "Repères nutritionnels pour 100 g"
	palmOilLabel      = "Ingrédients issus de l'huile de palme"
	additivesLabel    = "Additifs"
	manufacturerLabel = "site officiel du fabricant"
	ecoScoreMarker    = "Éco-Score"
)

// ProductSteps returns the extraction steps for an Open Food Facts product
// page, in the order they run.
func ProductSteps() []Step {
	return []Step{
		{Name: "name", Fields: []string{models.FieldName}, Run: extractName},
		{Name: "barcode", Fields: []string{models.FieldBarcode}, Run: extractBarcode},
		{
			Name:   "scores",
			Fields: []string{models.FieldNutriScore, models.FieldNova, models.FieldEcoScore},
			Run:    extractScores,
		},
		{Name: "characteristics", Fields: characteristicFields(), Run: extractCharacteristics},
		{
			Name:   "ingredients",
			Fields: []string{models.FieldAdditives, models.FieldPalmOil},
			Run:    extractIngredients,
		},
		{
			Name: "nutrition_100g",
			Fields: []string{
				models.FieldFat, models.FieldSaturatedFat,
				models.FieldSugars, models.FieldSalt,
			},
			Run: extractNutrition,
		},
		{Name: "comparison", Fields: []string{models.FieldComparison}, Run: extractComparison},
		{Name: "energy", Fields: []string{models.FieldEnergyKcal, models.FieldEnergy}, Run: extractEnergy},
		{Name: "environment", Fields: []string{models.FieldEnvironmentImpact}, Run: extractEnvironment},
	}
}

func characteristicFields() []string {
	fields := make([]string, 0, len(characteristicLabels))
	for _, name := range models.ProductFields {
		for _, mapped := range characteristicLabels {
			if mapped == name {
				fields = append(fields, name)
				break
			}
		}
	}
	return fields
}

func extractName(page render.Page) (map[string]string, error) {
	nodes := page.Find(`h1[itemprop="name"]`)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("product name: %w", errNodeMissing)
	}
	return map[string]string{models.FieldName: nodes[0].Text()}, nil
}

func extractBarcode(page render.Page) (map[string]string, error) {
	nodes := page.Find(`span[property="food:code"]`)
	if len(nodes) != 1 {
		return nil, nil
	}
	return map[string]string{models.FieldBarcode: nodes[0].Text()}, nil
}

func extractScores(page render.Page) (map[string]string, error) {
	grid := page.Find("#attributes_grid")
	if len(grid) == 0 {
		return nil, fmt.Errorf("attributes grid: %w", errNodeMissing)
	}
	values := make(map[string]string, 3)
	for _, heading := range grid[0].Find("h4") {
		text := heading.Text()
		switch {
		case strings.Contains(text, "Nutri-Score"):
			values[models.FieldNutriScore] = text
		case strings.Contains(text, "NOVA"):
			values[models.FieldNova] = text
		case strings.Contains(text, ecoScoreMarker):
			values[models.FieldEcoScore] = text
		}
	}
	return values, nil
}

func extractCharacteristics(page render.Page) (map[string]string, error) {
	containers := page.Find(`div[class="medium-12 large-8 xlarge-8 xxlarge-8 columns"]`)
	if len(containers) == 0 {
		return nil, fmt.Errorf("characteristics: %w", errNodeMissing)
	}
	values := make(map[string]string)
	for _, p := range containers[0].Find("p") {
		spans := p.Find("span")
		if len(spans) == 0 {
			continue
		}
		label := spans[0].Text()
		field, ok := characteristicLabels[parser.NormalizeLabel(label)]
		if !ok {
			continue
		}
		if strings.Contains(label, manufacturerLabel) {
			links := p.Find("a")
			if len(links) != 1 {
				continue
			}
			if href, ok := links[0].Attr("href"); ok {
				values[field] = page.AbsoluteURL(href)
			}
			continue
		}
		values[field] = parser.StripLabel(p.Text(), label)
	}
	return values, nil
}

func extractIngredients(page render.Page) (map[string]string, error) {
	values := map[string]string{models.FieldPalmOil: "No"}
	for _, block := range page.Find(`div[class="medium-6 columns"]`) {
		labels := block.Find("b")
		if len(labels) == 0 {
			continue
		}
		switch parser.NormalizeLabel(labels[0].Text()) {
		case palmOilLabel:
			values[models.FieldPalmOil] = "Yes"
		case additivesLabel:
			if links := block.Find("a"); len(links) > 0 {
				values[models.FieldAdditives] = links[0].Text()
			}
		}
	}
	return values, nil
}

func extractNutrition(page render.Page) (map[string]string, error) {
	values := make(map[string]string)
	for _, block := range page.Find(`div[class="small-12 xlarge-6 columns"]`) {
		headings := block.Find("h4")
		if len(headings) == 0 || parser.NormalizeText(headings[0].Text()) != nutritionHeading {
			continue
		}
		lines := block.Lines()
		if len(lines) > 0 {
			lines = lines[1:]
		}
		for _, line := range lines {
			for _, n := range nutrientLabels {
				if strings.Contains(line, n.label) {
					values[n.field] = parser.NormalizeText(line)
				}
			}
		}
	}
	return values, nil
}

func extractComparison(page render.Page) (map[string]string, error) {
	labels := page.Find(`label:has(input.show_comparison[type="checkbox"][checked])`)
	if len(labels) == 0 {
		return nil, nil
	}
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, label.Text())
	}
	return map[string]string{models.FieldComparison: strings.Join(parts, "|")}, nil
}

func extractEnergy(page render.Page) (map[string]string, error) {
	values := make(map[string]string, 2)
	rows := []struct {
		selector string
		field    string
	}{
		{"tr#nutriment_energy-kcal_tr", models.FieldEnergyKcal},
		{"tr#nutriment_energy_tr", models.FieldEnergy},
	}
	for _, row := range rows {
		trs := page.Find(row.selector)
		if len(trs) == 0 {
			continue
		}
		// first cell is the label
		cells := trs[0].Find("td")
		if len(cells) > 1 {
			values[row.field] = cells[1].Text()
		}
	}
	return values, nil
}

func extractEnvironment(page render.Page) (map[string]string, error) {
	grid := page.Find("#attributes_grid")
	if len(grid) == 0 {
		return nil, fmt.Errorf("attributes grid: %w", errNodeMissing)
	}
	for _, node := range grid[0].Find("*") {
		if !strings.Contains(node.Text(), ecoScoreMarker) {
			continue
		}
		spans := node.Find("span")
		if len(spans) == 0 {
			return nil, fmt.Errorf("environment impact: %w", errNodeMissing)
		}
		return map[string]string{models.FieldEnvironmentImpact: spans[0].Text()}, nil
	}
	return nil, nil
}
