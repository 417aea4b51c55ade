package sgp4

import (
	"math"
	"time"

	"github.com/sentinelspace/platform/internal/timeutil"
	"github.com/sentinelspace/platform/pkg/models"
)

// Satellite holds the mean elements and derived secular/periodic
// coefficients produced by initialization, ready for repeated propagation.
type Satellite struct {
	name  string
	epoch time.Time

	bstar, ecco, argpo, inclo, mo, noKozai, nodeo float64

	noUnkozai float64
	a         float64 // semi-major axis, earth radii
	alta      float64
	altp      float64

	cosio, sinio, con41, con42, x1mth2, x7thm1 float64
	eta                                         float64

	cc1, cc4, cc5, t2cof, t3cof, t4cof, t5cof float64
	d2, d3, d4                                 float64
	omgcof, xmcof, nodecf, xlcof, aycof        float64
	delmo, sinmao                              float64

	mdot, argpdot, nodedot float64

	isimp int
}

// Name returns the satellite's display name, as parsed from its TLE.
func (s *Satellite) Name() string { return s.name }

// Epoch returns the TLE epoch used as the propagation reference instant.
func (s *Satellite) Epoch() time.Time { return s.epoch }

// New initializes an SGP4 propagator from a parsed TLE element set,
// following Spacetrack Report #3's sgp4init procedure (near-earth branch).
func New(elem models.ElementSet) (*Satellite, error) {
	s := &Satellite{
		name:    elem.Name,
		epoch:   elem.Epoch,
		bstar:   elem.BStar,
		ecco:    elem.Eccentricity,
		argpo:   elem.ArgPerigee * timeutil.DegToRad,
		inclo:   elem.Inclination * timeutil.DegToRad,
		mo:      elem.MeanAnomaly * timeutil.DegToRad,
		noKozai: elem.MeanMotion * timeutil.TwoPi / 1440.0, // rev/day -> rad/min
		nodeo:   elem.RAAN * timeutil.DegToRad,
	}

	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Satellite) init() error {
	eccsq := s.ecco * s.ecco
	omeosq := 1.0 - eccsq
	rteosq := math.Sqrt(omeosq)
	cosio := math.Cos(s.inclo)
	cosio2 := cosio * cosio

	// Un-Kozai the mean motion to recover the SGP4 mean semi-major axis.
	ak := math.Pow(xke/s.noKozai, x2o3)
	d1 := 0.75 * wgs72J2 * (3.0*cosio2 - 1.0) / (rteosq * omeosq)
	del := d1 / (ak * ak)
	adel := ak * (1.0 - del*del - del*(1.0/3.0+134.0*del*del/81.0))
	del = d1 / (adel * adel)
	noUnkozai := s.noKozai / (1.0 + del)

	ao := math.Pow(xke/noUnkozai, x2o3)
	sinio := math.Sin(s.inclo)
	po := ao * omeosq
	con42 := 1.0 - 5.0*cosio2
	con41 := -con42 - cosio2 - cosio2
	posq := po * po
	rp := ao * (1.0 - s.ecco)

	if noUnkozai <= 0.0 {
		return &PropagationError{Code: 2, SatelliteName: s.name}
	}
	if eccsq >= 1.0 || eccsq < 0 || ao <= 0 {
		return &PropagationError{Code: 1, SatelliteName: s.name}
	}

	periodMin := timeutil.TwoPi / noUnkozai
	if periodMin >= 225.0 {
		return &PropagationError{Code: ErrCodeDeepSpaceUnsupported, SatelliteName: s.name}
	}

	s.noUnkozai = noUnkozai
	s.a = ao
	s.alta = ao*(1.0+s.ecco) - 1.0
	s.altp = ao*(1.0-s.ecco) - 1.0
	s.cosio = cosio
	s.sinio = sinio
	s.con41 = con41
	s.con42 = con42

	s.isimp = 0
	if rp < 220.0/wgs72RadiusKm+1.0 {
		s.isimp = 1
	}

	sfour := 78.0/wgs72RadiusKm + 1.0
	qzms24 := math.Pow((120.0-78.0)/wgs72RadiusKm, 4.0)
	perigeeKm := (rp - 1.0) * wgs72RadiusKm

	if perigeeKm < 156.0 {
		sfourKm := perigeeKm - 78.0
		if perigeeKm < 98.0 {
			sfourKm = 20.0
		}
		qzms24 = math.Pow((120.0-sfourKm)/wgs72RadiusKm, 4.0)
		sfour = sfourKm/wgs72RadiusKm + 1.0
	}

	pinvsq := 1.0 / posq
	tsi := 1.0 / (ao - sfour)
	s.eta = ao * s.ecco * tsi
	etasq := s.eta * s.eta
	eeta := s.ecco * s.eta
	psisq := math.Abs(1.0 - etasq)
	coef := qzms24 * math.Pow(tsi, 4.0)
	coef1 := coef / math.Pow(psisq, 3.5)

	cc2 := coef1 * noUnkozai * (ao*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.375*wgs72J2*tsi/psisq*con41*(8.0+3.0*etasq*(8.0+etasq)))
	s.cc1 = s.bstar * cc2

	cc3 := 0.0
	if s.ecco > 1.0e-4 {
		cc3 = -2.0 * coef * tsi * wgs72J3OJ2 * noUnkozai * sinio / s.ecco
	}
	s.x1mth2 = 1.0 - cosio2
	s.cc4 = 2.0 * noUnkozai * coef1 * ao * omeosq * (s.eta*(2.0+0.5*etasq) + s.ecco*(0.5+2.0*etasq) -
		wgs72J2*tsi/(ao*psisq)*(-3.0*con41*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
			0.75*s.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*s.argpo)))
	s.cc5 = 2.0 * coef1 * ao * omeosq * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)

	cosio4 := cosio2 * cosio2
	temp1 := 1.5 * wgs72J2 * pinvsq * noUnkozai
	temp2 := 0.5 * temp1 * wgs72J2 * pinvsq
	temp3 := -0.46875 * wgs72J4 * pinvsq * pinvsq * noUnkozai

	s.mdot = noUnkozai + 0.5*temp1*rteosq*con41 + 0.0625*temp2*rteosq*(13.0-78.0*cosio2+137.0*cosio4)
	s.argpdot = -0.5*temp1*con42 + 0.0625*temp2*(7.0-114.0*cosio2+395.0*cosio4) + temp3*(3.0-36.0*cosio2+49.0*cosio4)
	xhdot1 := -temp1 * cosio
	s.nodedot = xhdot1 + (0.5*temp2*(4.0-19.0*cosio2)+2.0*temp3*(3.0-7.0*cosio2))*cosio

	s.omgcof = s.bstar * cc3 * math.Cos(s.argpo)
	s.xmcof = 0.0
	if s.ecco > 1.0e-4 {
		s.xmcof = -x2o3 * coef * s.bstar / eeta
	}
	s.nodecf = 3.5 * omeosq * xhdot1 * s.cc1
	s.t2cof = 1.5 * s.cc1

	if math.Abs(cosio+1.0) > 1.5e-12 {
		s.xlcof = -0.25 * wgs72J3OJ2 * sinio * (3.0 + 5.0*cosio) / (1.0 + cosio)
	} else {
		s.xlcof = -0.25 * wgs72J3OJ2 * sinio * (3.0 + 5.0*cosio) / 1.5e-12
	}
	s.aycof = -0.5 * wgs72J3OJ2 * sinio
	s.delmo = math.Pow(1.0+s.eta*math.Cos(s.mo), 3.0)
	s.sinmao = math.Sin(s.mo)
	s.x7thm1 = 7.0*cosio2 - 1.0

	if s.isimp != 1 {
		cc1sq := s.cc1 * s.cc1
		s.d2 = 4.0 * ao * tsi * cc1sq
		temp := s.d2 * tsi * s.cc1 / 3.0
		s.d3 = (17.0*ao + sfour) * temp
		s.d4 = 0.5 * temp * ao * tsi * (221.0*ao + 31.0*sfour) * s.cc1
		s.t3cof = s.d2 + 2.0*cc1sq
		s.t4cof = 0.25 * (3.0*s.d3 + s.cc1*(12.0*s.d2+10.0*cc1sq))
		s.t5cof = 0.2 * (3.0*s.d4 + 12.0*s.cc1*s.d3 + 6.0*s.d2*s.d2 + 15.0*cc1sq*(2.0*s.d2+cc1sq))
	}

	return nil
}

// PropagateOne computes the ECI position (km) and velocity (km/s) at time t.
func (s *Satellite) PropagateOne(t time.Time) (timeutil.Vec3, timeutil.Vec3, error) {
	tsince := t.Sub(s.epoch).Minutes()
	return s.propagate(tsince)
}

func (s *Satellite) propagate(tsince float64) (timeutil.Vec3, timeutil.Vec3, error) {
	xmdf := s.mo + s.mdot*tsince
	argpdf := s.argpo + s.argpdot*tsince
	nodedf := s.nodeo + s.nodedot*tsince
	argpm := argpdf
	mm := xmdf
	t2 := tsince * tsince
	nodem := nodedf + s.nodecf*t2
	tempa := 1.0 - s.cc1*tsince
	tempe := s.bstar * s.cc4 * tsince
	templ := s.t2cof * t2

	if s.isimp != 1 {
		delomg := s.omgcof * tsince
		delmtemp := 1.0 + s.eta*math.Cos(xmdf)
		delm := s.xmcof * (delmtemp*delmtemp*delmtemp - s.delmo)
		temp := delomg + delm
		mm = xmdf + temp
		argpm = argpdf - temp
		t3 := t2 * tsince
		t4 := t3 * tsince
		tempa = tempa - s.d2*t2 - s.d3*t3 - s.d4*t4
		tempe = tempe + s.bstar*s.cc5*(math.Sin(mm)-s.sinmao)
		templ = templ + s.t3cof*t3 + t4*(s.t4cof+tsince*s.t5cof)
	}

	a := s.a * tempa * tempa
	e := s.ecco - tempe
	if e >= 1.0 || e < -0.001 || a < 0.95 {
		return timeutil.Vec3{}, timeutil.Vec3{}, &PropagationError{Code: 1, SatelliteName: s.name}
	}
	if e < 1.0e-6 {
		e = 1.0e-6
	}

	mm = mm + s.noUnkozai*templ
	xlm := mm + argpm + nodem
	emsq := e * e
	temp := 1.0 - emsq

	nodem = math.Mod(nodem, timeutil.TwoPi)
	if nodem < 0 {
		nodem += timeutil.TwoPi
	}
	argpm = math.Mod(argpm, timeutil.TwoPi)
	xlm = math.Mod(xlm, timeutil.TwoPi)
	mm = math.Mod(xlm-argpm-nodem, timeutil.TwoPi)
	if mm < 0 {
		mm += timeutil.TwoPi
	}

	// Solve Kepler's equation for the eccentric longitude.
	axnl := e * math.Cos(argpm)
	temp = 1.0 / (a * temp)
	aynl := e*math.Sin(argpm) + temp*s.aycof
	xl := mm + argpm + nodem + temp*s.xlcof*axnl

	u := math.Mod(xl-nodem, timeutil.TwoPi)
	eo1 := u
	var sineo1, coseo1 float64
	tem5 := 9999.9
	for ktr := 0; math.Abs(tem5) >= 1.0e-12 && ktr < 10; ktr++ {
		sineo1 = math.Sin(eo1)
		coseo1 = math.Cos(eo1)
		tem5 = 1.0 - coseo1*axnl - sineo1*aynl
		tem5 = (u - aynl*coseo1 + axnl*sineo1 - eo1) / tem5
		if tem5 > 0.95 {
			tem5 = 0.95
		} else if tem5 < -0.95 {
			tem5 = -0.95
		}
		eo1 += tem5
	}

	ecose := axnl*coseo1 + aynl*sineo1
	esine := axnl*sineo1 - aynl*coseo1
	el2 := axnl*axnl + aynl*aynl
	pl := a * (1.0 - el2)
	if pl < 0 {
		return timeutil.Vec3{}, timeutil.Vec3{}, &PropagationError{Code: 4, SatelliteName: s.name}
	}

	rl := a * (1.0 - ecose)
	rdotl := math.Sqrt(a) * esine / rl
	rvdotl := math.Sqrt(pl) / rl
	betal := math.Sqrt(1.0 - el2)
	temp = esine / (1.0 + betal)
	sinu := a / rl * (sineo1 - aynl - axnl*temp)
	cosu := a / rl * (coseo1 - axnl + aynl*temp)
	su := math.Atan2(sinu, cosu)
	sin2u := (cosu + cosu) * sinu
	cos2u := 1.0 - 2.0*sinu*sinu
	temp = 1.0 / pl
	temp1 := 0.5 * wgs72J2 * temp
	temp2 := temp1 * temp

	mrt := rl*(1.0-1.5*temp2*betal*s.con41) + 0.5*temp1*s.x1mth2*cos2u
	su = su - 0.25*temp2*s.x7thm1*sin2u
	xnode := nodem + 1.5*temp2*s.cosio*sin2u
	xinc := s.inclo + 1.5*temp2*s.cosio*s.sinio*cos2u
	mvt := rdotl - s.noUnkozai*temp1*s.x1mth2*sin2u/xke
	rvdot := rvdotl + s.noUnkozai*temp1*(s.x1mth2*cos2u+1.5*s.con41)/xke

	sinsu, cossu := math.Sin(su), math.Cos(su)
	snod, cnod := math.Sin(xnode), math.Cos(xnode)
	sini, cosi := math.Sin(xinc), math.Cos(xinc)
	xmx := -snod * cosi
	xmy := cnod * cosi
	ux := xmx*sinsu + cnod*cossu
	uy := xmy*sinsu + snod*cossu
	uz := sini * sinsu
	vx := xmx*cossu - cnod*sinsu
	vy := xmy*cossu - snod*sinsu
	vz := sini * cossu

	r := timeutil.Vec3{mrt * ux * wgs72RadiusKm, mrt * uy * wgs72RadiusKm, mrt * uz * wgs72RadiusKm}
	v := timeutil.Vec3{
		(mvt*ux + rvdot*vx) * vkmpersec,
		(mvt*uy + rvdot*vy) * vkmpersec,
		(mvt*uz + rvdot*vz) * vkmpersec,
	}

	return r, v, nil
}
