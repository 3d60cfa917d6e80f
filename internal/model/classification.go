package model

// Classification is the result of classifying an uploaded image
type Classification struct {
	Image      string  `json:"image"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// ClassifyRequest represents a request to classify an image
type ClassifyRequest struct {
	Image string `json:"image" validate:"required"`
}
