// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// configs gathers the tunable parameters of a Manager. Most fields mirror
// the teacher's configs struct (nodesize, cache sizing, growth limits); the
// remainder are the §6.4 restructuring thresholds that the teacher has no
// equivalent for, since rudd never reorders Davio/biconditional levels.
type configs struct {
	varnum          int
	nodesize        int
	cachesize       int
	maxnodesize     int
	maxnodeincrease int
	minfreenodes    int
	logger          *zap.SugaredLogger

	// §6.4 restructuring thresholds
	davioExistFactor     float64
	chooseNewBoundFactor float64
	chooseDavBoundFactor float64
	chooseFailBoundFactor float64
	chooseLowerBoundFactor float64
	maxGrowth            float64
	groupSize            int
	siftMaxVar           int
	siftMaxSwap          int
	timeLimitMillis      int
	maxMemory            int
	maxLive              int
}

func makeconfigs(varnum int) *configs {
	c := &configs{varnum: varnum}
	c.minfreenodes = _MINFREENODES
	c.maxnodeincrease = _DEFAULTMAXNODEINC
	c.nodesize = 2*varnum + 2
	c.logger = newDefaultLogger()

	c.davioExistFactor = 0.25
	c.chooseNewBoundFactor = 1.05
	c.chooseDavBoundFactor = 1.20
	c.chooseFailBoundFactor = 0.30
	c.chooseLowerBoundFactor = 0.90
	c.maxGrowth = 2.0
	c.groupSize = 4
	c.siftMaxVar = 1 << 20
	c.siftMaxSwap = 1 << 24
	c.timeLimitMillis = 0
	c.maxMemory = 0
	c.maxLive = 0
	return c
}

// Nodesize is a configuration option (function). It sets a preferred initial
// size for the node pool; the manager resizes whenever too few nodes remain
// free after a garbage-collection pass.
func Nodesize(size int) func(*configs) {
	return func(c *configs) {
		if size >= 2*c.varnum+2 {
			c.nodesize = size
		}
	}
}

// Maxnodesize caps the number of nodes the manager will ever allocate. Zero
// (the default) means no limit.
func Maxnodesize(size int) func(*configs) {
	return func(c *configs) { c.maxnodesize = size }
}

// Maxnodeincrease caps how much the node pool grows in a single resize.
func Maxnodeincrease(size int) func(*configs) {
	return func(c *configs) { c.maxnodeincrease = size }
}

// Minfreenodes sets the ratio (%) of free nodes that must remain after a
// garbage collection before the manager resizes instead.
func Minfreenodes(ratio int) func(*configs) {
	return func(c *configs) { c.minfreenodes = ratio }
}

// Cachesize sets the initial capacity of the operation cache.
func Cachesize(size int) func(*configs) {
	return func(c *configs) { c.cachesize = size }
}

// MaxGrowth bounds the multiplicative growth in live keys a sifting sweep
// will tolerate before it reverses direction (§4.9, §6.4's max_growth).
func MaxGrowth(factor float64) func(*configs) {
	return func(c *configs) { c.maxGrowth = factor }
}

// SiftMaxSwap bounds the number of adjacent swaps a sifting sweep performs
// while exploring positions for one variable (§6.4's sift_max_swap); the
// count restarts for each variable, and the swaps that bring the variable
// back to its best position are not counted.
func SiftMaxSwap(n int) func(*configs) {
	return func(c *configs) { c.siftMaxSwap = n }
}

// TimeLimit sets the wall-clock budget, in milliseconds, a sifting sweep is
// given before it aborts with TimeoutExpired (§6.4's time_limit). Only Sift
// arms this budget, for the length of the sweep; And, Xor, Ite and Apply
// check the deadline but, called on their own, run without a time limit.
// Zero (the default) means no limit.
func TimeLimit(millis int) func(*configs) {
	return func(c *configs) { c.timeLimitMillis = millis }
}

// GroupSize bounds the maximal size of a biconditional group (§6.4's
// group_size): the number of variables that may be paired together under a
// single biconditional expansion chain.
func GroupSize(n int) func(*configs) {
	return func(c *configs) { c.groupSize = n }
}

// fileConfig is the on-disk/viper shape of the §6.4 tunables, following the
// mapstructure-tagged Config type in junjiewwang-perf-analysis/pkg/config.
type fileConfig struct {
	Nodesize        int     `mapstructure:"nodesize"`
	Cachesize       int     `mapstructure:"cachesize"`
	Maxnodesize     int     `mapstructure:"max_nodesize"`
	Maxnodeincrease int     `mapstructure:"max_node_increase"`
	Minfreenodes    int     `mapstructure:"min_free_nodes"`

	DavioExistFactor       float64 `mapstructure:"davio_exist_factor"`
	ChooseNewBoundFactor   float64 `mapstructure:"choose_new_bound_factor"`
	ChooseDavBoundFactor   float64 `mapstructure:"choose_dav_bound_factor"`
	ChooseFailBoundFactor  float64 `mapstructure:"choose_fail_bound_factor"`
	ChooseLowerBoundFactor float64 `mapstructure:"choose_lower_bound_factor"`
	MaxGrowth              float64 `mapstructure:"max_growth"`
	GroupSize              int     `mapstructure:"group_size"`
	SiftMaxVar             int     `mapstructure:"sift_max_var"`
	SiftMaxSwap            int     `mapstructure:"sift_max_swap"`
	TimeLimitMillis        int     `mapstructure:"time_limit"`
	MaxMemory              int     `mapstructure:"max_memory"`
	MaxLive                int     `mapstructure:"max_live"`
}

func setFileDefaults(v *viper.Viper) {
	v.SetDefault("davio_exist_factor", 0.25)
	v.SetDefault("choose_new_bound_factor", 1.05)
	v.SetDefault("choose_dav_bound_factor", 1.20)
	v.SetDefault("choose_fail_bound_factor", 0.30)
	v.SetDefault("choose_lower_bound_factor", 0.90)
	v.SetDefault("max_growth", 2.0)
	v.SetDefault("group_size", 4)
	v.SetDefault("sift_max_var", 1<<20)
	v.SetDefault("sift_max_swap", 1<<24)
	v.SetDefault("time_limit", 0)
	v.SetDefault("max_memory", 0)
	v.SetDefault("max_live", 0)
}

// LoadOptions reads the §6.4 tunables from a YAML/TOML/JSON configuration
// file (any format viper recognizes) and returns them as a slice of
// functional options ready to pass to New, following the Load/
// LoadFromReader split used by junjiewwang-perf-analysis/pkg/config.
func LoadOptions(path string) ([]func(*configs), error) {
	v := viper.New()
	setFileDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("bkfdd: reading config %q: %w", path, err)
	}
	return optionsFromViper(v)
}

// LoadOptionsFromReader is the in-memory counterpart of LoadOptions, mainly
// useful for tests.
func LoadOptionsFromReader(configType string, content []byte) ([]func(*configs), error) {
	v := viper.New()
	setFileDefaults(v)
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("bkfdd: reading config: %w", err)
	}
	return optionsFromViper(v)
}

func optionsFromViper(v *viper.Viper) ([]func(*configs), error) {
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("bkfdd: unmarshalling config: %w", err)
	}
	opts := []func(*configs){
		func(c *configs) {
			if fc.Nodesize > 0 {
				c.nodesize = fc.Nodesize
			}
			if fc.Cachesize > 0 {
				c.cachesize = fc.Cachesize
			}
			c.maxnodesize = fc.Maxnodesize
			if fc.Maxnodeincrease > 0 {
				c.maxnodeincrease = fc.Maxnodeincrease
			}
			if fc.Minfreenodes > 0 {
				c.minfreenodes = fc.Minfreenodes
			}
			c.davioExistFactor = fc.DavioExistFactor
			c.chooseNewBoundFactor = fc.ChooseNewBoundFactor
			c.chooseDavBoundFactor = fc.ChooseDavBoundFactor
			c.chooseFailBoundFactor = fc.ChooseFailBoundFactor
			c.chooseLowerBoundFactor = fc.ChooseLowerBoundFactor
			if fc.MaxGrowth > 0 {
				c.maxGrowth = fc.MaxGrowth
			}
			if fc.GroupSize > 0 {
				c.groupSize = fc.GroupSize
			}
			if fc.SiftMaxVar > 0 {
				c.siftMaxVar = fc.SiftMaxVar
			}
			if fc.SiftMaxSwap > 0 {
				c.siftMaxSwap = fc.SiftMaxSwap
			}
			c.timeLimitMillis = fc.TimeLimitMillis
			c.maxMemory = fc.MaxMemory
			c.maxLive = fc.MaxLive
		},
	}
	return opts, nil
}
