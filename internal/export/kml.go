package export

import (
	"encoding/xml"
	"strconv"
	"strings"

	"citybites/internal/models"
)

type kmlDocument struct {
	XMLName  xml.Name `xml:"kml"`
	Xmlns    string   `xml:"xmlns,attr"`
	Document kmlBody  `xml:"Document"`
}

type kmlBody struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	ID          string         `xml:"id,attr,omitempty"`
	Name        string         `xml:"name"`
	Description string         `xml:"description,omitempty"`
	Point       *kmlGeometry   `xml:"Point,omitempty"`
	LineString  *kmlLineString `xml:"LineString,omitempty"`
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLineString struct {
	Tessellate  int    `xml:"tessellate"`
	Coordinates string `xml:"coordinates"`
}

func kmlCoord(lat, lon float64) string {
	return strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64) + ",0"
}

// KML renders places as Placemarks followed by an optional route LineString
// Placemark. Names and notes are XML-escaped.
func KML(places []models.Place, route *models.RouteResult, line []models.Coordinates) (*models.ExportFile, error) {
	doc := kmlDocument{
		Xmlns: "http://www.opengis.net/kml/2.2",
		Document: kmlBody{
			Name:       "CityBites",
			Placemarks: make([]kmlPlacemark, 0, len(places)+1),
		},
	}

	for _, p := range places {
		c := p.GetCoords()
		doc.Document.Placemarks = append(doc.Document.Placemarks, kmlPlacemark{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Notes,
			Point:       &kmlGeometry{Coordinates: kmlCoord(c.Lat, c.Lon)},
		})
	}

	if len(line) > 0 {
		coords := make([]string, len(line))
		for i, c := range line {
			coords[i] = kmlCoord(c.Lat, c.Lon)
		}
		doc.Document.Placemarks = append(doc.Document.Placemarks, kmlPlacemark{
			Name:       "Route",
			LineString: &kmlLineString{Tessellate: 1, Coordinates: strings.Join(coords, " ")},
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	return &models.ExportFile{
		Filename: "map.kml",
		Content:  xml.Header + string(data),
		MimeType: "application/vnd.google-earth.kml+xml",
	}, nil
}
