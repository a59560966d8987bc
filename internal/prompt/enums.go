package prompt

import (
	"fmt"
	"strings"
)

// AspectRatio represents the dimension of a generated image as understood by the generation endpoint
type AspectRatio string

const (
	AspectRatioSquare             AspectRatio = "IMAGE_ASPECT_RATIO_SQUARE"
	AspectRatioPortrait           AspectRatio = "IMAGE_ASPECT_RATIO_PORTRAIT"
	AspectRatioLandscape          AspectRatio = "IMAGE_ASPECT_RATIO_LANDSCAPE"
	AspectRatioUnspecified        AspectRatio = "IMAGE_ASPECT_RATIO_UNSPECIFIED"
	AspectRatioLandscapeFourThree AspectRatio = "IMAGE_ASPECT_RATIO_LANDSCAPE_FOUR_THREE"
	AspectRatioPortraitThreeFour  AspectRatio = "IMAGE_ASPECT_RATIO_PORTRAIT_THREE_FOUR"
)

const aspectRatioPrefix = "IMAGE_ASPECT_RATIO_"

var aspectRatios = []AspectRatio{
	AspectRatioSquare,
	AspectRatioPortrait,
	AspectRatioLandscape,
	AspectRatioUnspecified,
	AspectRatioLandscapeFourThree,
	AspectRatioPortraitThreeFour,
}

// AspectRatios returns all known aspect ratios
func AspectRatios() []AspectRatio {
	return append([]AspectRatio(nil), aspectRatios...)
}

// ShortName returns the aspect ratio without its wire prefix (e.g. SQUARE)
func (ratio AspectRatio) ShortName() string {
	return strings.TrimPrefix(string(ratio), aspectRatioPrefix)
}

// Valid reports whether the aspect ratio is a known one
func (ratio AspectRatio) Valid() bool {
	for _, known := range aspectRatios {
		if ratio == known {
			return true
		}
	}
	return false
}

// ParseAspectRatio accepts both the wire value and the short name of an aspect ratio, ignoring case
func ParseAspectRatio(raw string) (AspectRatio, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	for _, known := range aspectRatios {
		if normalized == string(known) || normalized == known.ShortName() {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown aspect ratio %q", raw)
}

// Model represents the model variant used to generate an image
type Model string

const (
	ModelImagen2                   Model = "IMAGEN_2"
	ModelImagen3                   Model = "IMAGEN_3"
	ModelImagen31                  Model = "IMAGEN_3_1"
	ModelImagen35                  Model = "IMAGEN_3_5"
	ModelImagen4                   Model = "IMAGEN_4"
	ModelImagen3Portrait           Model = "IMAGEN_3_PORTRAIT"
	ModelImagen3Landscape          Model = "IMAGEN_3_LANDSCAPE"
	ModelImagen3PortraitThreeFour  Model = "IMAGEN_3_PORTRAIT_THREE_FOUR"
	ModelImagen3LandscapeFourThree Model = "IMAGEN_3_LANDSCAPE_FOUR_THREE"
)

var models = []Model{
	ModelImagen2,
	ModelImagen3,
	ModelImagen31,
	ModelImagen35,
	ModelImagen4,
	ModelImagen3Portrait,
	ModelImagen3Landscape,
	ModelImagen3PortraitThreeFour,
	ModelImagen3LandscapeFourThree,
}

// Models returns all known models
func Models() []Model {
	return append([]Model(nil), models...)
}

// Valid reports whether the model is a known one
func (model Model) Valid() bool {
	for _, known := range models {
		if model == known {
			return true
		}
	}
	return false
}

// ParseModel accepts a model name ignoring case; '-' and '.' are treated like '_' (imagen-3.5 = IMAGEN_3_5)
func ParseModel(raw string) (Model, error) {
	normalized := strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range models {
		if normalized == string(known) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown model %q", raw)
}
