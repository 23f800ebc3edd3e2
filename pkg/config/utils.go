package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"gopkg.in/yaml.v2"
)

// initConfig decodes file into target according to the file name suffix.
func initConfig(file *os.File, target any) error {
	if strings.HasSuffix(file.Name(), ".toml") {
		_, err := toml.NewDecoder(file).Decode(target)
		return err
	}
	if strings.HasSuffix(file.Name(), ".yaml") || strings.HasSuffix(file.Name(), ".yml") {
		return yaml.NewDecoder(file).Decode(target)
	}
	if strings.HasSuffix(file.Name(), ".json") {
		return json.NewDecoder(file).Decode(target)
	}
	return wcerror.Newf(wcerror.WC_CONFIG_ERROR, "unknown config format type: %s. Use .toml, .yaml or .json suffix in filename", file.Name())
}

// DecodeFile decodes any file in one of the supported config formats.
func DecodeFile(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return initConfig(file, target)
}
