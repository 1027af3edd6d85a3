package core

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const genesisSchemaURL = "genesis.schema.json"

//go:embed schemas/genesis.schema.json
var genesisSchemaJSON []byte

var (
	genesisSchemaOnce sync.Once
	genesisSchema     *jsonschema.Schema
	genesisSchemaErr  error
)

func loadGenesisSchema() (*jsonschema.Schema, error) {
	genesisSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(genesisSchemaURL, bytes.NewReader(genesisSchemaJSON)); err != nil {
			genesisSchemaErr = err
			return
		}
		genesisSchema, genesisSchemaErr = c.Compile(genesisSchemaURL)
	})
	return genesisSchema, genesisSchemaErr
}

// ReadGenesis decodes a JSON genesis specification after checking it against
// the genesis schema.
func ReadGenesis(r io.Reader) (*Genesis, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	schema, err := loadGenesisSchema()
	if err != nil {
		return nil, fmt.Errorf("genesis schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}
	genesis := new(Genesis)
	if err := json.Unmarshal(data, genesis); err != nil {
		return nil, err
	}
	return genesis, nil
}
