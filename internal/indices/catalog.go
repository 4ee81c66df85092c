package indices

// Info describes one index for API consumers.
type Info struct {
	Name        Name   `json:"name"`
	FullName    string `json:"full_name"`
	Formula     string `json:"formula"`
	Description string `json:"description"`
}

// Catalog documents every index in canonical order.
var Catalog = []Info{
	{NDVI, "Normalized Difference Vegetation Index", "(NIR-RED)/(NIR+RED)", "Classic greenness indicator, range -1 to 1"},
	{EVI, "Enhanced Vegetation Index", "2.5*(NIR-RED)/(NIR+6*RED-7.5*BLUE+1)", "Less saturated over dense canopy, reduces atmospheric effects"},
	{NDRE, "Normalized Difference Red Edge", "(NIR-RE1)/(NIR+RE1)", "Leaf chlorophyll, used for fertilizer assessment"},
	{GNDVI, "Green NDVI", "(NIR-GREEN)/(NIR+GREEN)", "Chlorophyll content using the green band"},
	{SAVI, "Soil-Adjusted Vegetation Index", "(1+L)*(NIR-RED)/(NIR+RED+L), L=0.5", "Minimizes soil brightness influence"},
	{MSAVI2, "Modified SAVI", "(2*NIR+1-sqrt((2*NIR+1)^2-8*(NIR-RED)))/2", "Self-adjusting soil factor for sparse vegetation"},
	{LSWI, "Land Surface Water Index", "(NIR-SWIR1)/(NIR+SWIR1)", "Leaf water content, drought stress"},
	{NDMI, "Normalized Difference Moisture Index", "(NIR-SWIR1)/(NIR+SWIR1)", "Canopy moisture content"},
	{NDWI, "Normalized Difference Water Index", "(GREEN-NIR)/(GREEN+NIR)", "Surface water and irrigation monitoring"},
	{NBR, "Normalized Burn Ratio", "(NIR-SWIR2)/(NIR+SWIR2)", "Burn severity and stress"},
	{CIgreen, "Chlorophyll Index Green", "NIR/GREEN-1", "Leaf chlorophyll, linear response"},
	{CIre, "Chlorophyll Index Red Edge", "NIR/RE1-1", "Sensitive chlorophyll estimation"},
	{MCARI, "Modified Chlorophyll Absorption Ratio Index", "((RE1-RED)-0.2*(RE1-GREEN))*(RE1/RED)", "Chlorophyll concentration in leaves"},
	{TCARI, "Transformed Chlorophyll Absorption Ratio Index", "3*((RE1-RED)-0.2*(RE1-GREEN)*(RE1/RED))", "Chlorophyll with reduced soil background"},
	{WDRVI, "Wide Dynamic Range Vegetation Index", "(a*NIR-RED)/(a*NIR+RED), a=0.2", "Discrimination at high biomass"},
	{LAI, "Leaf Area Index (estimated)", "3.618*EVI-0.118", "One-sided leaf area per ground area"},
	{FPAR, "Fraction of Absorbed PAR (estimated)", "clamp(1.24*NDVI-0.168, 0, 1)", "Share of photosynthetically active radiation absorbed"},
	{BSI, "Bare Soil Index", "(SWIR1+RED-NIR-BLUE)/(SWIR1+RED+NIR+BLUE)", "Exposed soil detection"},
	{NDTI, "Normalized Difference Tillage Index", "(SWIR1-SWIR2)/(SWIR1+SWIR2)", "Crop residue and tillage practice"},
}
