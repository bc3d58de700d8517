package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwitchCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/dhw_255_boost/command"
	r := commandExtractor(baseTopic, "switch", "command")
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "dhw_255_boost", "device extract")
}

func TestSwitchCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/dhw_255_boost/state"
	r := commandExtractor(baseTopic, "switch", "command")
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestSelectCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/select/zone_0_hvac_mode/set"
	r := commandExtractor(baseTopic, "select", "set")
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "zone_0_hvac_mode", "select id extract")
}

func TestInputNumberCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/number/zone_0_target_temperature/set"
	r := commandExtractor(baseTopic, "number", "set")
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "zone_0_target_temperature", "number_id extract")
}

func TestInputNumberCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/switch/zone_0_target_temperature/command"
	r := commandExtractor(baseTopic, "number", "set")
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}
