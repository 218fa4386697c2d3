// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "SunScan")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "sunscan.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", "Sunday")

	viper.SetDefault("dataset.path", "data/la_palma_obs_data.csv")
	viper.SetDefault("dataset.defaultinstruments", []string{"CRISP", "CHROMIS", "IRIS"})
	viper.SetDefault("dataset.maxadditionalsources", 2)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "webserver.log")
	viper.SetDefault("webserver.log.rotation", RotationDaily)
	viper.SetDefault("webserver.log.maxsize", 1048576)

	viper.SetDefault("ads.apikey", "")
	viper.SetDefault("ads.baseurl", "https://api.adsabs.harvard.edu/v1/search/query")
	viper.SetDefault("ads.timeout", 30)
	viper.SetDefault("ads.cachettl", 60)
	viper.SetDefault("ads.ratelimitms", 200)
	viper.SetDefault("ads.maxrows", 100)

	viper.SetDefault("output.file.enabled", false)
	viper.SetDefault("output.file.path", "output/")
	viper.SetDefault("output.file.type", "table")
}
