package models

// Product field names extracted from a catalog item page.
const (
	FieldName                = "product_name"
	FieldBarcode             = "barcode"
	FieldNutriScore          = "nutri_score"
	FieldNova                = "nova_group"
	FieldEcoScore            = "eco_score"
	FieldGenericName         = "generic_name"
	FieldQuantity            = "quantity"
	FieldPackaging           = "packaging"
	FieldBrands              = "brands"
	FieldCategories          = "categories"
	FieldLabels              = "labels"
	FieldIngredientsOrigin   = "ingredients_origin"
	FieldManufacturingPlaces = "manufacturing_places"
	FieldTraceabilityCode    = "traceability_code"
	FieldManufacturerURL     = "manufacturer_url"
	FieldStores              = "stores"
	FieldCountries           = "countries_sold"
	FieldAdditives           = "additives"
	FieldPalmOil             = "palm_oil_ingredients"
	FieldFat                 = "fat_100g"
	FieldSaturatedFat        = "saturated_fat_100g"
	FieldSugars              = "sugars_100g"
	FieldSalt                = "salt_100g"
	FieldComparison          = "category_comparison"
	FieldEnergyKcal          = "energy_kcal"
	FieldEnergy              = "energy"
	FieldEnvironmentImpact   = "environmental_impact"
)

// ProductFields is the declared field order for product records.
var ProductFields = []string{
	FieldName,
	FieldBarcode,
	FieldNutriScore,
	FieldNova,
	FieldEcoScore,
	FieldGenericName,
	FieldQuantity,
	FieldPackaging,
	FieldBrands,
	FieldCategories,
	FieldLabels,
	FieldIngredientsOrigin,
	FieldManufacturingPlaces,
	FieldTraceabilityCode,
	FieldManufacturerURL,
	FieldStores,
	FieldCountries,
	FieldAdditives,
	FieldPalmOil,
	FieldFat,
	FieldSaturatedFat,
	FieldSugars,
	FieldSalt,
	FieldComparison,
	FieldEnergyKcal,
	FieldEnergy,
	FieldEnvironmentImpact,
}

// ProductSchema returns the schema for product records.
func ProductSchema() *Schema {
	return MustSchema(ProductFields...)
}
