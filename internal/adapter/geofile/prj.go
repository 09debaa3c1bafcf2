package geofile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	authorityRe = regexp.MustCompile(`(?i)AUTHORITY\s*\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)
	utmZoneRe   = regexp.MustCompile(`(?i)UTM[_ ]zone[_ ](\d{1,2})\s*([NS])`)
)

// CRSFromWKT maps an OGC/ESRI WKT definition to an "EPSG:n" identifier.
// The top-level AUTHORITY wins; otherwise the projection name is matched
// against the systems used by the municipal datasets.
func CRSFromWKT(wkt string) (string, error) {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return "", nil
	}
	if code, ok := topLevelAuthority(wkt); ok {
		return fmt.Sprintf("EPSG:%d", code), nil
	}

	upper := strings.ToUpper(wkt)
	sirgas := strings.Contains(upper, "SIRGAS")

	if strings.HasPrefix(upper, "PROJCS") {
		if m := utmZoneRe.FindStringSubmatch(wkt); m != nil {
			zone, _ := strconv.Atoi(m[1])
			south := strings.EqualFold(m[2], "S")
			switch {
			case sirgas && south && zone >= 17 && zone <= 25:
				return fmt.Sprintf("EPSG:%d", 31960+zone), nil
			case sirgas:
				return "", fmt.Errorf("SIRGAS 2000 UTM zone %d%s", zone, m[2])
			case south:
				return fmt.Sprintf("EPSG:%d", 32700+zone), nil
			default:
				return fmt.Sprintf("EPSG:%d", 32600+zone), nil
			}
		}
		if strings.Contains(upper, "MERCATOR_AUXILIARY_SPHERE") || strings.Contains(upper, "PSEUDO-MERCATOR") ||
			strings.Contains(upper, "POPULAR VISUALISATION") {
			return "EPSG:3857", nil
		}
		return "", fmt.Errorf("unrecognized projection in %.60q", wkt)
	}

	if strings.HasPrefix(upper, "GEOGCS") {
		switch {
		case sirgas:
			return "EPSG:4674", nil
		case strings.Contains(upper, "WGS_1984") || strings.Contains(upper, "WGS 84") || strings.Contains(upper, "WGS84"):
			return "EPSG:4326", nil
		}
	}
	return "", fmt.Errorf("unrecognized coordinate system in %.60q", wkt)
}

// topLevelAuthority returns the EPSG authority attached to the outermost
// WKT node, ignoring those of nested datums, units and axes.
func topLevelAuthority(wkt string) (int, bool) {
	matches := authorityRe.FindAllStringSubmatchIndex(wkt, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if bracketDepth(wkt[:m[0]]) != 1 {
			continue
		}
		code, err := strconv.Atoi(wkt[m[2]:m[3]])
		if err != nil {
			return 0, false
		}
		return code, true
	}
	return 0, false
}

func bracketDepth(s string) int {
	depth := 0
	for _, r := range s {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		}
	}
	return depth
}
