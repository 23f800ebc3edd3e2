package config

import (
	"encoding/json"

	"github.com/pg-sharding/widecol/pkg/models/token"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/pkg/errors"
)

const (
	DefaultMaxCartesianProduct = 100

	CatalogMem  = "mem"
	CatalogEtcd = "etcd"
)

var cfgPlanner Planner

type Catalog struct {
	Type       string `json:"type" toml:"type" yaml:"type"`
	BackupPath string `json:"backup_path" toml:"backup_path" yaml:"backup_path"`
	EtcdAddr   string `json:"etcd_addr" toml:"etcd_addr" yaml:"etcd_addr"`
}

type Planner struct {
	LogLevel string `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" toml:"log_file" yaml:"log_file"`

	Partitioner         string `json:"partitioner" toml:"partitioner" yaml:"partitioner"`
	MaxCartesianProduct int    `json:"max_cartesian_product" toml:"max_cartesian_product" yaml:"max_cartesian_product"`
	// pointer so that an explicit false survives defaulting
	AllowLocalIndex *bool `json:"allow_local_index" toml:"allow_local_index" yaml:"allow_local_index"`

	Catalog Catalog `json:"catalog" toml:"catalog" yaml:"catalog"`

	Tracing       bool      `json:"tracing" toml:"tracing" yaml:"tracing"`
	TimeQuantiles []float64 `json:"time_quantiles" toml:"time_quantiles" yaml:"time_quantiles"`
}

func DefaultPlanner() Planner {
	allow := true
	return Planner{
		LogLevel:            "info",
		Partitioner:         "murmur3",
		MaxCartesianProduct: DefaultMaxCartesianProduct,
		AllowLocalIndex:     &allow,
		Catalog:             Catalog{Type: CatalogMem},
	}
}

func (p *Planner) applyDefaults() {
	def := DefaultPlanner()
	if p.LogLevel == "" {
		p.LogLevel = def.LogLevel
	}
	if p.Partitioner == "" {
		p.Partitioner = def.Partitioner
	}
	if p.MaxCartesianProduct == 0 {
		p.MaxCartesianProduct = def.MaxCartesianProduct
	}
	if p.AllowLocalIndex == nil {
		p.AllowLocalIndex = def.AllowLocalIndex
	}
	if p.Catalog.Type == "" {
		p.Catalog.Type = def.Catalog.Type
	}
}

func (p *Planner) validate() error {
	if _, err := token.PartitionerByName(p.Partitioner); err != nil {
		return wcerror.Newf(wcerror.WC_CONFIG_ERROR, "invalid partitioner: %s", err)
	}
	if p.MaxCartesianProduct < 0 {
		return wcerror.Newf(wcerror.WC_CONFIG_ERROR, "max_cartesian_product must be positive, got %d", p.MaxCartesianProduct)
	}
	switch p.Catalog.Type {
	case CatalogMem:
	case CatalogEtcd:
		if p.Catalog.EtcdAddr == "" {
			return wcerror.New(wcerror.WC_CONFIG_ERROR, "etcd catalog requires etcd_addr")
		}
	default:
		return wcerror.Newf(wcerror.WC_CONFIG_ERROR, "unknown catalog type %q", p.Catalog.Type)
	}
	for _, q := range p.TimeQuantiles {
		if q < 0 || q > 1 {
			return wcerror.Newf(wcerror.WC_CONFIG_ERROR, "time quantile %v is out of [0, 1]", q)
		}
	}
	return nil
}

// LoadPlannerCfg loads the planner configuration from cfgPath and returns
// its JSON rendering. On error the previous configuration is replaced by
// the defaults.
func LoadPlannerCfg(cfgPath string) (string, error) {
	var pcfg Planner
	if err := DecodeFile(cfgPath, &pcfg); err != nil {
		cfgPlanner = DefaultPlanner()
		return "", errors.Wrapf(err, "failed to load planner config %s", cfgPath)
	}
	pcfg.applyDefaults()
	if err := pcfg.validate(); err != nil {
		cfgPlanner = DefaultPlanner()
		return "", err
	}
	cfgPlanner = pcfg

	configBytes, err := json.MarshalIndent(&cfgPlanner, "", "  ")
	if err != nil {
		return "", err
	}
	return string(configBytes), nil
}

func PlannerConfig() *Planner {
	return &cfgPlanner
}

func (p *Planner) LocalIndexAllowed() bool {
	return p.AllowLocalIndex == nil || *p.AllowLocalIndex
}
