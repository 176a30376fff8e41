/*
Package thumbcrop is a content aware cropping library, which picks the region of an image
most likely to hold its important content and cuts a thumbnail of the requested size out of it.

The analysis relies on plain pixel statistics: skin tone likelihood, edge density and color saturation.
The feature maps are reduced to a coarse grid, then every candidate window is scored against it
with a center weighted importance kernel, and the best scoring one is selected.

The package provides a command line interface, supporting various flags for tuning the analysis.
To check the supported commands type:

	$ thumbcrop --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/thumbcrop"
	)

	func main() {
		p := &thumbcrop.Processor{
			Width:  200,
			Height: 200,
			Resize: true,
		}

		if err := p.Process(in, out); err != nil {
			fmt.Printf("Error cropping image: %s", err.Error())
		}
	}

The crop selection alone is available through SelectCrop or an Analyzer.
*/
package thumbcrop
