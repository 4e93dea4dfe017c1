// Package creek holds the water-quality domain model: measurement and site
// types loaded from the monitoring CSVs, the EPA screening thresholds the
// assistant reasons against, and the deterministic analysis used by the
// data tools (ranking, trend direction, exceedance checks).
//
// Dataset conventions: sites are identified by short lowercase codes such as
// "peav@oldb" (creek abbreviation + road abbreviation). E. coli and total
// coliform concentrations are reported in MPN/100 mL, turbidity in NTU, and
// pH on the standard scale. Lab sheets sometimes report censored counts like
// ">2419.6"; those are loaded at the censoring limit. Missing values stay
// NULL and are excluded from comparisons rather than treated as zero.
package creek
