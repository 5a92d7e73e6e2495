package shome

// modelTypeCategories maps the cloud's thngModelTypeId codes to the
// device family they belong to. Codes observed on real installations;
// anything absent here is skipped by the caller.
var modelTypeCategories = map[string]Category{
	"TD00000069": CategoryLight,
	"TD00000076": CategorySensor,
	"TD00000073": CategoryVentilation,
	"TD00000070": CategoryAircon,
	"TD00000071": CategoryHeater,
}

// Classify resolves a listed device to its category. The second return
// is false for model types this integration does not handle.
func Classify(d Device) (Category, bool) {
	cat, ok := modelTypeCategories[d.ModelTypeID]
	return cat, ok
}

// GroupByCategory buckets devices by family, dropping unsupported model
// types. The logger records each skip at debug level so new wallpad
// firmware revisions can be diagnosed from the logs.
func GroupByCategory(devices []Device, logger Logger) map[Category][]Device {
	if logger == nil {
		logger = noopLogger{}
	}
	grouped := make(map[Category][]Device)
	for _, d := range devices {
		cat, ok := Classify(d)
		if !ok {
			logger.Debug("skipping unsupported device",
				"thng_id", d.ThngID,
				"model_type", d.ModelTypeID,
				"model_name", d.ModelName)
			continue
		}
		grouped[cat] = append(grouped[cat], d)
	}
	return grouped
}
