package tpp

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// edgeWeightType enumerates the supported distance encodings.
type edgeWeightType int

const (
	weightsEuc2D edgeWeightType = iota
	weightsExplicit
)

// NewInstance assembles an Instance from raw data and derives the lookup
// structures (per-product offer table, needed products list, nearest
// neighbor lists). The offers in marketOffers are re-stamped with their row's
// market id and sorted ascending by price.
//
// Contracts:
//   - len(weights) == dimension², row-major.
//   - len(demands) == productCount; negative demands are not allowed.
//   - marketOffers has one row per node (row 0, the depot, is usually empty).
func NewInstance(dimension int, weights []int, demands []int,
	marketOffers [][]Offer) *Instance {

	inst := &Instance{
		Dimension:    dimension,
		travelCosts:  weights,
		IsSymmetric:  true,
		ProductCount: len(demands),
		Demands:      demands,
		MarketOffers: marketOffers,
	}

	for p, demand := range demands {
		if demand > 0 {
			inst.NeededProducts = append(inst.NeededProducts, uint32(p))
		}
		// A single demand above one unit makes the instance capacitated.
		if demand > 1 {
			inst.IsCapacitated = true
		}
	}

	for m := range inst.MarketOffers {
		offers := inst.MarketOffers[m]
		for i := range offers {
			offers[i].MarketID = uint16(m)
		}
		sort.SliceStable(offers, func(a, b int) bool {
			return hasLowerPrice(offers[a], offers[b])
		})
	}

	inst.MarketProductOffers = make([][]Offer, dimension)
	for m := 0; m < dimension; m++ {
		row := make([]Offer, inst.ProductCount)
		for _, offer := range inst.MarketOffers[m] {
			row[offer.ProductID] = offer
		}
		inst.MarketProductOffers[m] = row
	}

	inst.NNLists = buildNNLists(inst)
	return inst
}

// LoadFromFile reads a TPPLIB instance file as described at
// http://jriera.webs.ull.es/TPPLIB/TPPLIBFormat.htm.
//
// Supported keys: NAME, TYPE (must be TPP), COMMENT, DIMENSION,
// EDGE_WEIGHT_TYPE (EUC_2D or EXPLICIT), EDGE_WEIGHT_FORMAT (UPPER_ROW),
// EDGE_DATA_FORMAT (ignored), DISPLAY_DATA_TYPE (ignored), NODE_COORD_TYPE
// (TWOD_COORDS), NODE_COORD_SECTION, EDGE_WEIGHT_SECTION, DEMAND_SECTION,
// OFFER_SECTION, EOF. An EDGE_WEIGHT_SECTION without a preceding
// EDGE_WEIGHT_FORMAT defaults to UPPER_ROW.
func LoadFromFile(path string) (*Instance, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInstance, err)
	}
	defer file.Close()

	var (
		scanner    = bufio.NewScanner(file)
		name       string
		dimension  int
		weightType = weightsEuc2D
		weights    [][]int
		demands    []int
		offers     [][]Offer
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		prefix := line
		suffix := ""
		if pos := strings.IndexByte(line, ':'); pos >= 0 {
			prefix = line[:pos]
			suffix = line[pos+1:]
		}
		prefix = strings.TrimSpace(prefix)
		suffix = strings.TrimSpace(suffix)

		switch {
		case prefix == "":
			// skip blank lines

		case strings.HasPrefix(prefix, "NAME"):
			name = suffix

		case strings.HasPrefix(prefix, "TYPE"):
			if suffix != "TPP" {
				return nil, fmt.Errorf("%w: TYPE %q", ErrUnsupportedFormat, suffix)
			}

		case strings.HasPrefix(prefix, "COMMENT"),
			strings.HasPrefix(prefix, "DISPLAY_DATA_TYPE"),
			strings.HasPrefix(prefix, "EDGE_DATA_FORMAT"):
			// informational only

		case strings.HasPrefix(prefix, "DIMENSION"):
			dimension, err = strconv.Atoi(suffix)
			if err != nil || dimension < 2 {
				return nil, fmt.Errorf("%w: DIMENSION %q", ErrBadInstance, suffix)
			}

		case strings.HasPrefix(prefix, "EDGE_WEIGHT_TYPE"):
			switch suffix {
			case "EUC_2D":
				weightType = weightsEuc2D
			case "EXPLICIT":
				weightType = weightsExplicit
			default:
				return nil, fmt.Errorf("%w: EDGE_WEIGHT_TYPE %q", ErrUnsupportedFormat, suffix)
			}

		case strings.HasPrefix(prefix, "EDGE_WEIGHT_FORMAT"):
			if suffix != "UPPER_ROW" {
				return nil, fmt.Errorf("%w: EDGE_WEIGHT_FORMAT %q", ErrUnsupportedFormat, suffix)
			}

		case strings.HasPrefix(prefix, "NODE_COORD_TYPE"):
			if suffix != "TWOD_COORDS" {
				return nil, fmt.Errorf("%w: NODE_COORD_TYPE %q", ErrUnsupportedFormat, suffix)
			}

		case strings.HasPrefix(prefix, "NODE_COORD_SECTION"):
			coords, cerr := readNodeCoordSection(scanner, dimension)
			if cerr != nil {
				return nil, cerr
			}
			weights = euclideanWeights(coords)

		case strings.HasPrefix(prefix, "EDGE_WEIGHT_SECTION"):
			if weightType != weightsExplicit {
				return nil, fmt.Errorf("%w: EDGE_WEIGHT_SECTION requires EDGE_WEIGHT_TYPE: EXPLICIT", ErrBadInstance)
			}
			weights, err = readEdgeWeightSection(scanner, dimension)
			if err != nil {
				return nil, err
			}

		case strings.HasPrefix(prefix, "DEMAND_SECTION"):
			demands, err = readDemandSection(scanner)
			if err != nil {
				return nil, err
			}

		case strings.HasPrefix(prefix, "OFFER_SECTION"):
			offers, err = readOfferSection(scanner, dimension)
			if err != nil {
				return nil, err
			}

		case strings.HasPrefix(prefix, "EOF"):
			// end marker

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownSection, prefix)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInstance, err)
	}
	if dimension == 0 || weights == nil || demands == nil || offers == nil {
		return nil, fmt.Errorf("%w: incomplete instance", ErrBadInstance)
	}

	flat := make([]int, dimension*dimension)
	for i := 0; i < dimension; i++ {
		copy(flat[i*dimension:(i+1)*dimension], weights[i])
	}

	inst := NewInstance(dimension, flat, demands, offers)
	if name == "" {
		name = instanceNameFromPath(path)
	}
	inst.Name = name
	return inst, nil
}

// instanceNameFromPath derives the instance name from the file name,
// stripping a trailing ".tpp" when present.
func instanceNameFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, ".tpp")
}

func scanLine(scanner *bufio.Scanner, what string) (string, error) {
	if !scanner.Scan() {
		return "", fmt.Errorf("%w: missing line in %s", ErrBadInstance, what)
	}
	return scanner.Text(), nil
}

// readDemandSection reads the product count line followed by one
// "product_id demand" line per product (ids are 1-based in the file).
func readDemandSection(scanner *bufio.Scanner) ([]int, error) {
	line, err := scanLine(scanner, "DEMAND_SECTION")
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || count <= 0 {
		return nil, fmt.Errorf("%w: bad product count %q", ErrBadInstance, line)
	}

	demands := make([]int, count)
	for i := 0; i < count; i++ {
		if line, err = scanLine(scanner, "DEMAND_SECTION"); err != nil {
			return nil, err
		}
		var (
			id     int
			demand int
		)
		if _, err = fmt.Sscan(line, &id, &demand); err != nil {
			return nil, fmt.Errorf("%w: demand line %q", ErrBadInstance, line)
		}
		if id != i+1 || demand < 0 {
			return nil, fmt.Errorf("%w: demand line %q", ErrBadInstance, line)
		}
		demands[i] = demand
	}
	return demands, nil
}

// readOfferSection reads one line per market:
// "market_id offer_count (product_id price quantity)*". Product ids are
// stored 0-based internally.
func readOfferSection(scanner *bufio.Scanner, marketCount int) ([][]Offer, error) {
	offers := make([][]Offer, marketCount)

	for m := 0; m < marketCount; m++ {
		line, err := scanLine(scanner, "OFFER_SECTION")
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: offer line %q", ErrBadInstance, line)
		}
		id, err1 := strconv.Atoi(fields[0])
		count, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || id != m+1 || count < 0 {
			return nil, fmt.Errorf("%w: offer line %q", ErrBadInstance, line)
		}
		if len(fields) != 2+3*count {
			return nil, fmt.Errorf("%w: offer line %q has %d fields, want %d",
				ErrBadInstance, line, len(fields), 2+3*count)
		}
		row := make([]Offer, 0, count)
		for j := 0; j < count; j++ {
			product, e1 := strconv.Atoi(fields[2+3*j])
			price, e2 := strconv.Atoi(fields[3+3*j])
			quantity, e3 := strconv.Atoi(fields[4+3*j])
			if e1 != nil || e2 != nil || e3 != nil ||
				product < 1 || price < 0 || quantity <= 0 {
				return nil, fmt.Errorf("%w: offer line %q", ErrBadInstance, line)
			}
			row = append(row, Offer{
				Price:     price,
				Quantity:  quantity,
				ProductID: uint16(product - 1),
				MarketID:  uint16(m),
			})
		}
		offers[m] = row
	}
	return offers, nil
}

// readEdgeWeightSection reads the upper triangle row by row (UPPER_ROW) and
// mirrors it into a full symmetric matrix.
func readEdgeWeightSection(scanner *bufio.Scanner, dimension int) ([][]int, error) {
	weights := make([][]int, dimension)
	for i := range weights {
		weights[i] = make([]int, dimension)
	}

	for i := 1; i < dimension; i++ {
		line, err := scanLine(scanner, "EDGE_WEIGHT_SECTION")
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) != dimension-i {
			return nil, fmt.Errorf("%w: weight row %d has %d entries, want %d",
				ErrBadInstance, i, len(fields), dimension-i)
		}
		for j := i; j < dimension; j++ {
			w, err := strconv.Atoi(fields[j-i])
			if err != nil {
				return nil, fmt.Errorf("%w: weight %q", ErrBadInstance, fields[j-i])
			}
			weights[i-1][j] = w
			weights[j][i-1] = w
		}
	}
	return weights, nil
}

// readNodeCoordSection reads "id x y" lines (1-based ids).
func readNodeCoordSection(scanner *bufio.Scanner, dimension int) ([][2]int, error) {
	coords := make([][2]int, 0, dimension)
	for i := 0; i < dimension; i++ {
		line, err := scanLine(scanner, "NODE_COORD_SECTION")
		if err != nil {
			return nil, err
		}
		var id, x, y int
		if _, err = fmt.Sscan(line, &id, &x, &y); err != nil || id != i+1 {
			return nil, fmt.Errorf("%w: coord line %q", ErrBadInstance, line)
		}
		coords = append(coords, [2]int{x, y})
	}
	return coords, nil
}

// euclideanWeights computes the EUC_2D distance matrix: distances are
// truncated to int after the square root, per the TPPLIB description.
func euclideanWeights(coords [][2]int) [][]int {
	n := len(coords)
	weights := make([][]int, n)
	for i := range weights {
		weights[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			xd := float64(coords[i][0] - coords[j][0])
			yd := float64(coords[i][1] - coords[j][1])
			w := int(math.Sqrt(xd*xd + yd*yd))
			weights[i][j] = w
			weights[j][i] = w
		}
	}
	return weights
}
