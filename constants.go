package afstft

// maxChannels bounds the channel counts accepted by Config.Validate.
// Spatial-audio workloads top out around higher-order ambisonic and large
// loudspeaker arrays; 128 leaves generous headroom.
const maxChannels = 128

// hybridSplitBands is the number of low bins split in two by the hybrid
// stage, and hybridExtraBands the resulting band-count increase.
const (
	hybridSplitBands = 4
	hybridExtraBands = 4
)

// hybridCenterWeights maps the nine lowest hybrid-mode bands to the five
// lowest uniform bins. Row i gives the weights over uniform bin centers
// 0..4; the weighted centroid is the band's reported center frequency.
// The split bands sit asymmetrically inside their parent bins, and the
// topmost row extrapolates past the fourth bin center.
var hybridCenterWeights = [9][5]float64{
	{1, 0, 0, 0, 0},
	{0.25, 0.75, 0, 0, 0},
	{0, 0.75, 0.25, 0, 0},
	{0, 0.25, 0.75, 0, 0},
	{0, 0, 0.75, 0.25, 0},
	{0, 0, 0.25, 0.75, 0},
	{0, 0, 0, 0.75, 0.25},
	{0, 0, 0, 0.25, 0.75},
	{0, 0, 0, -0.25, 1.25},
}
