/*
Package yaml provides methods to parse feature.Feature specifications,
also known as metadata, from YAML documents.
*/
package yaml

import (
	"fmt"
	"os"
	"sort"

	"github.com/ty01csbaidu/streamDM/feature"
	yaml "gopkg.in/yaml.v2"
)

/*
ReadFeatures takes a slice of bytes with a feature specification in YML
and returns a slice of features parsed from it or an error.
The YML is expected to be an object containing a features property. The
value for this should be an object with a property for each feature with
its name and either the string value 'numeric' for numeric features or a
list of valid values for nominal features. Features are returned sorted
by name so the feature order, and with it the encoding of examples, is
stable across runs.
*/
func ReadFeatures(md []byte) ([]feature.Feature, error) {
	metadata := struct {
		Features map[string]interface{}
	}{}
	err := yaml.Unmarshal(md, &metadata)
	if err != nil {
		return nil, fmt.Errorf("parsing yml features: %v", err)
	}
	if metadata.Features == nil {
		return nil, fmt.Errorf("metadata file has no feature information")
	}
	names := make([]string, 0, len(metadata.Features))
	for fn := range metadata.Features {
		names = append(names, fn)
	}
	sort.Strings(names)
	features := make([]feature.Feature, 0, len(names))
	for _, fn := range names {
		switch values := metadata.Features[fn].(type) {
		case string:
			if values != "numeric" {
				return nil, fmt.Errorf("feature %s: unknown feature kind %q", fn, values)
			}
			features = append(features, feature.NewNumericFeature(fn))
		case []interface{}:
			stringVs := make([]string, 0, len(values))
			for _, v := range values {
				stringVs = append(stringVs, fmt.Sprintf("%v", v))
			}
			features = append(features, feature.NewNominalFeature(fn, stringVs))
		case []string:
			features = append(features, feature.NewNominalFeature(fn, values))
		default:
			return nil, fmt.Errorf("feature %s: invalid declaration of type %T", fn, values)
		}
	}
	return features, nil
}

/*
ReadFeaturesFromFile takes a filepath string, reads its contents and
uses ReadFeatures to parse it and return a slice of parsed features or
an error. If the file indicated by the filepath cannot be opened for
reading an error will be returned.
*/
func ReadFeaturesFromFile(filepath string) ([]feature.Feature, error) {
	md, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading features yml file %s: %v", filepath, err)
	}
	features, err := ReadFeatures(md)
	if err != nil {
		err = fmt.Errorf("parsing features yml file %s: %v", filepath, err)
	}
	return features, err
}
