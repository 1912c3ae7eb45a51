package layer

type Config struct {
	MaxPoints   int  `envconfig:"SIDX_LAYER_MAX_POINTS" default:"0"`
	MaxEntries  int  `envconfig:"SIDX_LAYER_MAX_ENTRIES" default:"4"`
	ExactDelete bool `envconfig:"SIDX_LAYER_EXACT_DELETE" default:"false"`
}
