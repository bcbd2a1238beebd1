package scraper

import (
	"errors"
	"testing"

	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/render"
)

const productFixture = `<html><body>
<h1 itemprop="name">Nutella</h1>
<p>Code-barres : <span property="food:code">3017620422003</span></p>
<ul id="attributes_grid">
  <li><div><h4>Nutri-Score E</h4><span>Mauvaise qualité nutritionnelle</span></div></li>
  <li><div><h4>NOVA 4</h4><span>Produits alimentaires ultra-transformés</span></div></li>
  <li><div><h4>Éco-Score D</h4><span>Impact environnemental élevé</span></div></li>
</ul>
<div class="medium-12 large-8 xlarge-8 xxlarge-8 columns">
  <p><span>Dénomination générique :</span> Pâte à tartiner aux noisettes</p>
  <p><span>Quantité :</span> 400 g</p>
  <p><span>Marques :</span> Ferrero</p>
  <p><span>Lien vers la page du produit sur le site officiel du fabricant :</span> <a href="https://www.ferrero.fr/nutella">site</a></p>
  <p><span>Pays de vente :</span> France</p>
  <p><span>Remarque :</span> ignored</p>
</div>
<div class="medium-6 columns"><b>Additifs :</b> <a href="/additif/e322">E322 - Lécithines</a></div>
<div class="medium-6 columns"><b>Ingrédients issus de l'huile de palme :</b> <a href="/ingredient/palme">huile de palme</a></div>
<div class="small-12 xlarge-6 columns"><h4>Repères nutritionnels pour 100 g</h4>
Matières grasses / Lipides 30,9 g<br/>Acides gras saturés 10,6 g<br/>Sucres 56,3 g<br/>Sel 0,107 g</div>
<label><input type="checkbox" class="show_comparison" checked="checked"/>Pâtes à tartiner</label>
<label><input type="checkbox" class="show_comparison"/>Snacks</label>
<label><input type="checkbox" class="show_comparison" checked="checked"/>Petit-déjeuners</label>
<table>
  <tr id="nutriment_energy-kcal_tr"><td>Énergie (kcal)</td><td>539 kcal</td></tr>
  <tr id="nutriment_energy_tr"><td>Énergie</td><td>2 252 kj</td></tr>
</table>
</body></html>`

func mustPage(t *testing.T, url, body string) render.Page {
	t.Helper()
	page, err := render.NewPage(url, []byte(body))
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	return page
}

func TestProductStepsExtractFullPage(t *testing.T) {
	e := testExtractor(t)
	locator := testHost + "/produit/3017620422003/nutella"
	rec := e.Extract(locator, mustPage(t, locator, productFixture))

	if rec.URL != locator {
		t.Fatalf("url=%q, want %q", rec.URL, locator)
	}
	if got := len(rec.Fields()); got != len(models.ProductFields) {
		t.Fatalf("fields=%d, want %d", got, len(models.ProductFields))
	}

	want := map[string]string{
		models.FieldName:              "Nutella",
		models.FieldBarcode:           "3017620422003",
		models.FieldNutriScore:        "Nutri-Score E",
		models.FieldNova:              "NOVA 4",
		models.FieldEcoScore:          "Éco-Score D",
		models.FieldGenericName:       "Pâte à tartiner aux noisettes",
		models.FieldQuantity:          "400 g",
		models.FieldBrands:            "Ferrero",
		models.FieldManufacturerURL:   "https://www.ferrero.fr/nutella",
		models.FieldCountries:         "France",
		models.FieldAdditives:         "E322 - Lécithines",
		models.FieldPalmOil:           "Yes",
		models.FieldFat:               "Matières grasses / Lipides 30,9 g",
		models.FieldSaturatedFat:      "Acides gras saturés 10,6 g",
		models.FieldSugars:            "Sucres 56,3 g",
		models.FieldSalt:              "Sel 0,107 g",
		models.FieldComparison:        "Pâtes à tartiner|Petit-déjeuners",
		models.FieldEnergyKcal:        "539 kcal",
		models.FieldEnergy:            "2 252 kj",
		models.FieldEnvironmentImpact: "Impact environnemental élevé",
		models.FieldPackaging:         models.UnknownValue,
		models.FieldCategories:        models.UnknownValue,
		models.FieldStores:            models.UnknownValue,
	}
	for field, expected := range want {
		got, ok := rec.Get(field)
		if !ok {
			t.Fatalf("field %q missing", field)
		}
		if got != expected {
			t.Fatalf("%s=%q, want %q", field, got, expected)
		}
	}
	if rec.Identity(models.FieldBarcode) != "3017620422003" {
		t.Fatalf("identity=%q", rec.Identity(models.FieldBarcode))
	}
}

func TestProductStepsEmptyPageYieldsSentinels(t *testing.T) {
	e := testExtractor(t)
	locator := testHost + "/produit/1"
	rec := e.Extract(locator, mustPage(t, locator, "<html><body><p>gone</p></body></html>"))

	for _, f := range rec.Fields() {
		want := models.UnknownValue
		if f.Name == models.FieldPalmOil {
			want = "No"
		}
		if f.Value != want {
			t.Fatalf("%s=%q, want %q", f.Name, f.Value, want)
		}
	}
	if got := rec.Identity(models.FieldBarcode); got != locator {
		t.Fatalf("identity=%q, want url fallback %q", got, locator)
	}
}

func TestFieldExtractorPartialRecord(t *testing.T) {
	fields := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	schema := models.MustSchema(fields...)

	steps := []Step{
		{
			Name:   "first",
			Fields: fields[:6],
			Run: func(render.Page) (map[string]string, error) {
				return map[string]string{"a": "1", "b": "2", "c": "3", "d": "4", "e": "5", "f": "6"}, nil
			},
		},
		{
			Name:   "second",
			Fields: fields[6:9],
			Run: func(render.Page) (map[string]string, error) {
				return map[string]string{"g": "7", "h": "8"}, nil
			},
		},
		{
			Name:   "broken",
			Fields: fields[9:11],
			Run: func(render.Page) (map[string]string, error) {
				return map[string]string{"j": "leaked"}, errors.New("selector timeout")
			},
		},
		{
			Name:   "panics",
			Fields: fields[11:],
			Run: func(render.Page) (map[string]string, error) {
				var m map[string]string
				m["l"] = "boom"
				return m, nil
			},
		},
	}

	e, err := NewFieldExtractor(schema, steps, nil)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	rec := e.Extract("http://example.test/x", mustPage(t, "http://example.test/x", "<html></html>"))

	if got := len(rec.Fields()); got != 12 {
		t.Fatalf("fields=%d, want 12", got)
	}
	missing := rec.Missing()
	if len(missing) != 4 {
		t.Fatalf("missing=%v, want 4 sentinel fields", missing)
	}
	for _, name := range []string{"i", "j", "k", "l"} {
		if v, _ := rec.Get(name); v != models.UnknownValue {
			t.Fatalf("%s=%q, want sentinel", name, v)
		}
	}
}

func TestNewFieldExtractorRejectsUnknownField(t *testing.T) {
	schema := models.MustSchema("a")
	steps := []Step{{
		Name:   "x",
		Fields: []string{"b"},
		Run:    func(render.Page) (map[string]string, error) { return nil, nil },
	}}
	if _, err := NewFieldExtractor(schema, steps, nil); err == nil {
		t.Fatalf("expected error for undeclared field")
	}
}

func TestProductStepsCoverSchema(t *testing.T) {
	declared := make(map[string]bool)
	for _, step := range ProductSteps() {
		for _, f := range step.Fields {
			if declared[f] {
				t.Fatalf("field %q declared by two steps", f)
			}
			declared[f] = true
		}
	}
	for _, f := range models.ProductFields {
		if !declared[f] {
			t.Fatalf("field %q has no extraction step", f)
		}
	}
}
