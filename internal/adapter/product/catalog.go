package product

import (
	"strings"

	"go.ngs.io/oraip-profiles/internal/domain"
)

const gecco2Sentinel = -1e34

var (
	temperature = domain.Temperature
	sentinel    = gecco2Sentinel
)

// integrated is the per-bound annual-mean layout shared by most cumulative products.
func integrated(prefix, suffix string, q domain.Quantity) Variant {
	v := Variant{
		Layout:  PerBound,
		Pattern: prefix + "_int{token}_annmean_{start}to{end}_0-{bound}m" + suffix + ".nc",
		Token:   q.String(),
		Var:     "vertically_integrated_temperature",
		Coords:  defaultCoords,
		Time:    TimeCF,
	}
	if q == domain.Salinity {
		v.Var = "vertically_integrated_salinity"
	}
	return v
}

func withTime(v Variant, enc TimeEncoding, names ...string) Variant {
	v.Time = enc
	if len(names) > 0 {
		v.Coords.Time = names
	}
	return v
}

func native(pattern, token, variable string, enc TimeEncoding, c Coords) Variant {
	return Variant{Layout: SingleFile, Pattern: pattern, Token: token, Var: variable, Time: enc, Coords: c}
}

func axes(lat, lon, time, depth string) Coords {
	return Coords{Lat: []string{lat}, Lon: []string{lon}, Time: []string{time}, Depth: []string{depth}}
}

// Catalog returns every known product. Each call returns fresh values.
func Catalog() []*Product {
	ecdaT := withTime(integrated("ECDA", "_r360x180", domain.Temperature), TimeCF, "time", "TIME")
	ecdaS := withTime(integrated("ECDA", "_r360x180", domain.Salinity), TimeCF, "time", "TIME")

	glosea := func(q domain.Quantity) Variant {
		v := withTime(integrated("GloSea5_GO5", "_r360x180", q), TimeCF, "time_counter")
		v.Grid = OneDegree()
		return v
	}

	en4 := func(q domain.Quantity) Variant {
		v := integrated("EN4.2.0.g10", "", q)
		v.Var = "t_int_{bound}"
		if q == domain.Salinity {
			v.Var = "s_int_{bound}"
		}
		return v
	}

	glorys := func(token, variable string) Variant {
		c := defaultCoords
		c.Depth = []string{"zdepth"}
		return Variant{
			Layout:  SingleFile,
			Pattern: "GSOP_GLORYS2V4_ORCA025_{token}.nc",
			Token:   token,
			Var:     variable,
			Time:    TimeCF,
			Coords:  c,
		}
	}

	climatology := func(pattern, variable string) Variant {
		v := native(pattern, "", variable, TimeSeasonal, defaultCoords)
		v.LonShift = true
		return v
	}

	return []*Product{
		{
			ID: "CGLORS", Title: "C-GLORS025v5", Kind: Native, First: 1989, Last: 2014, Day: 15,
			Roster: true, Antarctic: true,
			Grids: []GridEpoch{
				{Grid: "WOA", Depth: "deptht", FromYear: 2010, ToYear: 2010, Quantity: &temperature, Exception: true},
				{Grid: "WOA", Depth: "deptht", FromYear: 1989, ToYear: 1992},
				{Grid: "1x1", Depth: "dep", FromYear: 1993, ToYear: 9999},
			},
			T: Variant{Layout: PerYear, Pattern: "CGLORS025v5/{var}_ORCA025-{grid}_{year}.nc", Var: "votemper", Time: TimeMonthly, Coords: defaultCoords},
			S: Variant{Layout: PerYear, Pattern: "CGLORS025v5/{var}_ORCA025-{grid}_{year}.nc", Var: "vosaline", Time: TimeMonthly, Coords: defaultCoords},
		},
		{
			ID: "ECDA", Title: "ECDA3", Kind: Cumulative, First: 1993, Last: 2011,
			Screen: true, Roster: true, Antarctic: true,
			T: ecdaT, S: ecdaS,
		},
		{
			ID: "GECCO2", Kind: Cumulative, First: 1948, Last: 2012,
			Screen: true, Roster: true, Antarctic: true,
			T: integrated("GECCO2", "_r360x180", domain.Temperature),
			S: Variant{
				Layout:    SingleFile,
				Pattern:   "GECCO2_intS_annmean_1948to2011_all_layers_r360x180.nc",
				Token:     "S",
				Var:       "S_0_{bound}",
				Time:      TimeAnnual,
				Coords:    defaultCoords,
				LonShift:  true,
				Sentinel:  &sentinel,
				DepthMean: true,
			},
		},
		{
			ID: "GloSea5", Title: "GloSea5-GO5", Kind: Cumulative, First: 1993, Last: 2014,
			Screen: true, Roster: true, Antarctic: true,
			T: glosea(domain.Temperature), S: glosea(domain.Salinity),
		},
		{
			ID: "GLORYS", Aliases: []string{"GLORYS2V4"}, Title: "GLORYS2v4", Kind: Cumulative,
			Screen: true, Roster: true, Antarctic: true,
			T: glorys("HC", "z{bound}heatc"), S: glorys("SC", "z{bound}saltc"),
		},
		{
			ID: "MOVEG2i", Title: "MOVE-G2i", Kind: Native, First: 1980, Last: 2012,
			Roster: true, Antarctic: true,
			T: native("MOVEG2i_{token}3d_{start}-{end}.nc", "temp", "temp", TimeMonthsSince, axes("lat", "lon", "time", "level")),
			S: native("MOVEG2i_{token}3d_{start}-{end}.nc", "sal", "sal", TimeMonthsSince, axes("lat", "lon", "time", "level")),
		},
		{
			ID: "ORAP5", Kind: Native, First: 1993, Last: 2012,
			Roster: true, Antarctic: true,
			T: native("{token}3D_orap5_1m_{start}-{end}_r360x180.nc", "temperature", "votemper", TimeMonthsSince, axes("lat", "lon", "time_counter", "deptht")),
			S: native("{token}3D_orap5_1m_{start}-{end}_r360x180.nc", "salinity", "vosaline", TimeMonthsSince, axes("lat", "lon", "time_counter", "deptht")),
		},
		{
			ID: "SODA3.3.1", Aliases: []string{"SODA331", "SODA"}, Kind: Native, First: 1980, Last: 2015, Day: 1,
			Roster: true, Antarctic: true,
			T: Variant{Layout: PerYear, Pattern: "{token}3D_SODA3.3.1/{token}3D_SODA_3_3_1_{year}.nc", Token: "temperature", Var: "temp", Time: TimeMonthly, Coords: axes("latitude", "longitude", "time", "depth")},
			S: Variant{Layout: PerYear, Pattern: "{token}3D_SODA3.3.1/{token}3D_SODA_3_3_1_{year}.nc", Token: "salinity", Var: "salt", Time: TimeMonthly, Coords: axes("latitude", "longitude", "time", "depth")},
		},
		{
			ID: "UoR", Title: "UR025.4", Kind: Cumulative, First: 1989, Last: 2010,
			Screen: true, Roster: true, Antarctic: true,
			T: integrated("UoR", "_r360x180", domain.Temperature),
			S: integrated("UoR", "_r360x180", domain.Salinity),
		},
		{
			ID: "TOPAZ", Title: "TOPAZ4", Kind: Native, First: 1993, Last: 2013,
			Roster: true,
			T:      Variant{Layout: PerMonth, Pattern: "TP4_r360x180_{token}_{year}_{month}.nc", Token: "temp", Var: "temperature", Time: TimeFileMonth, Coords: axes("latitude", "longitude", "time", "depth")},
			S:      Variant{Layout: PerMonth, Pattern: "TP4_r360x180_{token}_{year}_{month}.nc", Token: "salt", Var: "salinity", Time: TimeFileMonth, Coords: axes("latitude", "longitude", "time", "depth")},
		},
		{
			ID: "MOVEG2", Kind: Cumulative, First: 1993, Last: 2012,
			Screen: true, Antarctic: true,
			T: withTime(integrated("MOVEG2", "_r360x180", domain.Temperature), TimeCFOrMonths),
			S: withTime(integrated("MOVEG2", "_r360x180", domain.Salinity), TimeCFOrMonths),
		},
		{
			ID: "EN4", Title: "EN4.2.0.g10", Kind: Cumulative, First: 1950, Last: 2015,
			Screen: true, IsRef: true, Antarctic: true,
			T: en4(domain.Temperature), S: en4(domain.Salinity),
		},
		{
			ID: "WOA13", Kind: Native, First: 1995, Last: 2012,
			IsRef: true, Antarctic: true,
			T: climatology("ts-clim/woa13/woa13-clim-1995-2012-season.nc", "temperature"),
			S: climatology("ts-clim/woa13/woa13-clim-1995-2012-season.nc", "salinity"),
		},
		{
			ID: "Sumata", Kind: Native, First: 1980, Last: 2015,
			IsRef: true,
			T:     climatology("ts-clim/hiroshis-clim/archive_v12_QC2_3_DPL_checked_2d_season_all-remapbil-oraip.nc", "temperature"),
			S:     climatology("ts-clim/hiroshis-clim/archive_v12_QC2_3_DPL_checked_2d_season_all-remapbil-oraip.nc", "salinity"),
		},
	}
}

// Lookup finds a product by name or alias, case-insensitively.
func Lookup(name string) (*Product, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Catalog() {
		if strings.ToLower(p.ID) == key {
			return p, nil
		}
		for _, a := range p.Aliases {
			if strings.ToLower(a) == key {
				return p, nil
			}
		}
	}
	return nil, &domain.ConfigError{Kind: domain.KindProduct, Value: name}
}

// Names returns the names of every catalog product.
func Names() []string {
	var out []string
	for _, p := range Catalog() {
		out = append(out, p.ID)
	}
	return out
}

// Available reports whether a product covers the basin.
func (p *Product) Available(basin domain.Basin) bool {
	return basin != domain.Antarctic || p.Antarctic
}

// DefaultRoster returns the names of the model products compared by default.
func DefaultRoster(basin domain.Basin) []string {
	var out []string
	for _, p := range Catalog() {
		if p.Roster && p.Available(basin) {
			out = append(out, p.ID)
		}
	}
	return out
}

// References returns the observational products compared against the models.
func References(basin domain.Basin) []*Product {
	var out []*Product
	for _, name := range []string{"Sumata", "WOA13", "EN4"} {
		p, _ := Lookup(name)
		if p.Available(basin) {
			out = append(out, p)
		}
	}
	return out
}

// Resolve looks up each name in order.
func Resolve(names []string) ([]*Product, error) {
	out := make([]*Product, 0, len(names))
	for _, n := range names {
		p, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
