package script

// The smoke fragment family. Grid names carry the _s<id> suffix, the
// upsampled noise grids _sn<id>.

const smokeBounds = `
# Prepare domain
mantaMsg('Smoke domain')
flags_s$ID$.initDomain(boundaryWidth=boundaryWidth_s$ID$)
flags_s$ID$.fillGrid()
if doOpen_s$ID$:
    setOpenBound(flags=flags_s$ID$, bWidth=boundaryWidth_s$ID$, openBound=boundConditions_s$ID$, type=FlagOutflow|FlagEmpty)
`

const smokeBoundsNoise = `
# Prepare noise domain
mantaMsg('Smoke domain noise')
flags_sn$ID$.initDomain(boundaryWidth=boundaryWidth_s$ID$)
flags_sn$ID$.fillGrid()
if doOpen_s$ID$:
    setOpenBound(flags=flags_sn$ID$, bWidth=boundaryWidth_s$ID$, openBound=boundConditions_s$ID$, type=FlagOutflow|FlagEmpty)
`

const smokeVariables = `
mantaMsg('Smoke variables low')
preconditioner_s$ID$  = PcMGStatic
using_colors_s$ID$    = $USING_COLORS$
using_heat_s$ID$      = $USING_HEAT$
using_fire_s$ID$      = $USING_FIRE$
using_noise_s$ID$     = $USING_NOISE$
vorticity_s$ID$       = $VORTICITY$
buoyancy_dens_s$ID$   = $BUOYANCY_ALPHA$
buoyancy_heat_s$ID$   = $BUOYANCY_BETA$
`

const smokeVariablesNoise = `
mantaMsg('Smoke variables noise')
wltStrength_s$ID$ = $WLT_STR$
octaves_s$ID$     = 0
uvs_s$ID$         = 2
uv_s$ID$          = [] # list for UV grids

if upres_sn$ID$ == 1:
    octaves_s$ID$ = int(math.log(upres_sn$ID$+1)/ math.log(2.0) + 0.5)
elif upres_sn$ID$ > 1:
    octaves_s$ID$ = int(math.log(upres_sn$ID$)/ math.log(2.0) + 0.5)

# wavelet noise params
wltnoise_sn$ID$.posScale = vec3(int(1.0*gs_s$ID$.x)) / $NOISE_POSSCALE$
wltnoise_sn$ID$.timeAnim = $NOISE_TIMEANIM$
`

const smokeAlloc = `
mantaMsg('Smoke alloc')
density_s$ID$    = s$ID$.create(RealGrid)
emissionIn_s$ID$ = s$ID$.create(RealGrid)
shadow_s$ID$     = s$ID$.create(RealGrid)
heat_s$ID$       = 0 # allocated dynamically
flame_s$ID$      = 0
fuel_s$ID$       = 0
react_s$ID$      = 0
color_r_s$ID$    = 0
color_g_s$ID$    = 0
color_b_s$ID$    = 0

# Keep track of important objects in dict to load them later on
smoke_data_dict_s$ID$ = dict(density=density_s$ID$, shadow=shadow_s$ID$)
`

const smokeAllocNoise = `
mantaMsg('Smoke alloc noise')
vel_sn$ID$       = sn$ID$.create(MACGrid)
density_sn$ID$   = sn$ID$.create(RealGrid)
phiOut_sn$ID$    = sn$ID$.create(LevelsetGrid)
phiObs_sn$ID$    = sn$ID$.create(LevelsetGrid)
flags_sn$ID$     = sn$ID$.create(FlagGrid)
energy_s$ID$     = s$ID$.create(RealGrid)
tempFlag_s$ID$   = s$ID$.create(FlagGrid)
texture_u_s$ID$  = s$ID$.create(RealGrid)
texture_v_s$ID$  = s$ID$.create(RealGrid)
texture_w_s$ID$  = s$ID$.create(RealGrid)
texture_u2_s$ID$ = s$ID$.create(RealGrid)
texture_v2_s$ID$ = s$ID$.create(RealGrid)
texture_w2_s$ID$ = s$ID$.create(RealGrid)
wltnoise_sn$ID$  = sn$ID$.create(NoiseField, loadFromFile=True)

# Keep track of important objects in dict to load them later on
smoke_noise_dict_s$ID$ = dict(density_noise=density_sn$ID$)
tmpDict_s$ID$ = dict(texture_u=texture_u_s$ID$, texture_v=texture_v_s$ID$, texture_w=texture_w_s$ID$)
smoke_noise_dict_s$ID$.update(tmpDict_s$ID$)
tmpDict_s$ID$ = dict(texture_u2=texture_u2_s$ID$, texture_v2=texture_v2_s$ID$, texture_w2=texture_w2_s$ID$)
smoke_noise_dict_s$ID$.update(tmpDict_s$ID$)
`

const smokeAllocColors = `
mantaMsg('Allocating colors')
color_r_s$ID$   = s$ID$.create(RealGrid)
color_g_s$ID$   = s$ID$.create(RealGrid)
color_b_s$ID$   = s$ID$.create(RealGrid)

# Add objects to dict to load them later on
tmpDict_s$ID$ = dict(color_r=color_r_s$ID$, color_g=color_g_s$ID$, color_b=color_b_s$ID$)
smoke_data_dict_s$ID$.update(tmpDict_s$ID$)
`

const smokeAllocColorsNoise = `mantaMsg('Allocating colors noise')
color_r_sn$ID$ = sn$ID$.create(RealGrid)
color_g_sn$ID$ = sn$ID$.create(RealGrid)
color_b_sn$ID$ = sn$ID$.create(RealGrid)

# Add objects to dict to load them later on
tmpDict_s$ID$ = dict(color_r_noise=color_r_sn$ID$, color_g_noise=color_g_sn$ID$, color_b_noise=color_b_sn$ID$)
smoke_noise_dict_s$ID$.update(tmpDict_s$ID$)
`

const smokeInitColors = `
mantaMsg('Initializing colors')
color_r_s$ID$.copyFrom(density_s$ID$)
color_r_s$ID$.multConst($COLOR_R$)
color_g_s$ID$.copyFrom(density_s$ID$)
color_g_s$ID$.multConst($COLOR_G$)
color_b_s$ID$.copyFrom(density_s$ID$)
color_b_s$ID$.multConst($COLOR_B$)
`

const smokeInitColorsNoise = `
mantaMsg('Initializing colors noise')
color_r_sn$ID$.copyFrom(density_sn$ID$)
color_r_sn$ID$.multConst($COLOR_R$)
color_g_sn$ID$.copyFrom(density_sn$ID$)
color_g_sn$ID$.multConst($COLOR_G$)
color_b_sn$ID$.copyFrom(density_sn$ID$)
color_b_sn$ID$.multConst($COLOR_B$)
`

const smokeAllocHeat = `
mantaMsg('Allocating heat')
heat_s$ID$   = s$ID$.create(RealGrid)

# Add objects to dict to load them later on
tmpDict_s$ID$ = dict(heat=heat_s$ID$)
smoke_data_dict_s$ID$.update(tmpDict_s$ID$)
`

const smokeAllocFire = `
mantaMsg('Allocating fire')
flame_s$ID$  = s$ID$.create(RealGrid)
fuel_s$ID$   = s$ID$.create(RealGrid)
react_s$ID$  = s$ID$.create(RealGrid)

# Add objects to dict to load them later on
tmpDict_s$ID$ = dict(flame=flame_s$ID$, fuel=fuel_s$ID$, react=react_s$ID$,)
smoke_data_dict_s$ID$.update(tmpDict_s$ID$)
`

const smokeAllocFireNoise = `
mantaMsg('Allocating fire noise')
flame_sn$ID$ = sn$ID$.create(RealGrid)
fuel_sn$ID$  = sn$ID$.create(RealGrid)
react_sn$ID$ = sn$ID$.create(RealGrid)

# Add objects to dict to load them later on
tmpDict_s$ID$ = dict(react_noise=react_sn$ID$, fuel_noise=fuel_sn$ID$, flame_noise=flame_sn$ID$)
smoke_noise_dict_s$ID$.update(tmpDict_s$ID$)
`

const smokePreStepNoise = `
def smoke_pre_step_noise_$ID$():
    mantaMsg('Smoke pre step noise')
    # Create interpolated version of original phi grids for later use in (optional) high-res step
    if using_obstacle_s$ID$:
        interpolateGrid(target=phiOut_sn$ID$, source=phiOut_s$ID$)
        interpolateGrid(target=phiObs_sn$ID$, source=phiObs_s$ID$)

    global uv_s$ID$
    if len(uv_s$ID$) != 0: # list of uvs already initialized?
        copyRealToVec3(sourceX=texture_u_s$ID$, sourceY=texture_v_s$ID$, sourceZ=texture_w_s$ID$, target=uv_s$ID$[0])
        copyRealToVec3(sourceX=texture_u2_s$ID$, sourceY=texture_v2_s$ID$, sourceZ=texture_w2_s$ID$, target=uv_s$ID$[1])
    else:
        mantaMsg('Initializing UV Grids')
        for i in range(uvs_s$ID$):
            uvGrid_s$ID$ = s$ID$.create(VecGrid)
            uv_s$ID$.append(uvGrid_s$ID$)
            resetUvGrid(uv_s$ID$[i])
`

const smokePostStepNoise = `
def smoke_post_step_noise_$ID$():
    mantaMsg('Smoke post step noise')
    copyVec3ToReal(source=uv_s$ID$[0], targetX=texture_u_s$ID$, targetY=texture_v_s$ID$, targetZ=texture_w_s$ID$)
    copyVec3ToReal(source=uv_s$ID$[1], targetX=texture_u2_s$ID$, targetY=texture_v2_s$ID$, targetZ=texture_w2_s$ID$)
`

const smokeAdaptiveStep = `
def smoke_adaptive_step_$ID$(framenr):
    mantaMsg('Manta step, frame ' + str(framenr))

    # time params are animatable
    s$ID$.frameLength = dt0_s$ID$
    s$ID$.cfl = cfl_cond_s$ID$

    fluid_pre_step_$ID$()

    if using_obstacle_s$ID$:
        phiObs_s$ID$.join(phiObsIn_s$ID$)

    phiOut_s$ID$.join(phiOutIn_s$ID$)

    setObstacleFlags(flags=flags_s$ID$, phiObs=phiObs_s$ID$, phiOut=phiOut_s$ID$)
    flags_s$ID$.fillGrid()

    mantaMsg('Smoke step / s$ID$.frame: ' + str(s$ID$.frame))
    if using_fire_s$ID$:
        process_burn_$ID$()
    smoke_step_$ID$()
    if using_fire_s$ID$:
        update_flame_$ID$()

    s$ID$.step()

    fluid_post_step_$ID$()
`

const smokeAdaptiveStepNoise = `
def smoke_adaptive_step_noise_$ID$(framenr):
    mantaMsg('Manta step noise, frame ' + str(framenr))

    sn$ID$.frame = framenr
    sn$ID$.timeTotal = sn$ID$.frame * dt0_s$ID$
    last_frame_s$ID$ = sn$ID$.frame

    smoke_pre_step_noise_$ID$()

    while sn$ID$.frame == last_frame_s$ID$:

        mantaMsg('sn.frame is ' + str(sn$ID$.frame))
        setObstacleFlags(flags=flags_sn$ID$, phiObs=phiObs_sn$ID$, phiOut=phiOut_sn$ID$)
        flags_sn$ID$.fillGrid()

        fluid_adapt_time_step_noise_$ID$()
        mantaMsg('Noise step / sn$ID$.frame: ' + str(sn$ID$.frame))
        if using_fire_s$ID$:
            process_burn_noise_$ID$()
        step_noise_$ID$()
        if using_fire_s$ID$:
            update_flame_noise_$ID$()

        sn$ID$.step()

    smoke_post_step_noise_$ID$()
`

const smokeStep = `
def smoke_step_$ID$():
    mantaMsg('Smoke step low')
    mantaMsg('Advecting density')
    advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=density_s$ID$, order=$ADVECT_ORDER$)

    if using_heat_s$ID$:
        mantaMsg('Advecting heat')
        advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=heat_s$ID$, order=$ADVECT_ORDER$)

    if using_fire_s$ID$:
        mantaMsg('Advecting fire')
        advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=fuel_s$ID$, order=$ADVECT_ORDER$)
        advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=react_s$ID$, order=$ADVECT_ORDER$)

    if using_colors_s$ID$:
        mantaMsg('Advecting colors')
        advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=color_r_s$ID$, order=$ADVECT_ORDER$)
        advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=color_g_s$ID$, order=$ADVECT_ORDER$)
        advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=color_b_s$ID$, order=$ADVECT_ORDER$)

    mantaMsg('Advecting velocity')
    advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=vel_s$ID$, order=$ADVECT_ORDER$, openBounds=doOpen_s$ID$, boundaryWidth=boundaryWidth_s$ID$)

    if doOpen_s$ID$:
        resetOutflow(flags=flags_s$ID$, real=density_s$ID$)

    mantaMsg('Vorticity')
    vorticityConfinement(vel=vel_s$ID$, flags=flags_s$ID$, strength=vorticity_s$ID$)

    if using_heat_s$ID$:
        mantaMsg('Adding heat buoyancy')
        addBuoyancy(flags=flags_s$ID$, density=density_s$ID$, vel=vel_s$ID$, gravity=gravity_s$ID$, coefficient=buoyancy_dens_s$ID$)
        addBuoyancy(flags=flags_s$ID$, density=heat_s$ID$, vel=vel_s$ID$, gravity=gravity_s$ID$, coefficient=buoyancy_heat_s$ID$)
    else:
        mantaMsg('Adding buoyancy')
        addBuoyancy(density=density_s$ID$, vel=vel_s$ID$, gravity=gravity_s$ID$, flags=flags_s$ID$)

    mantaMsg('Adding forces')
    addForceField(flags=flags_s$ID$, vel=vel_s$ID$, force=forces_s$ID$)

    if using_obstacle_s$ID$:
        mantaMsg('Extrapolating object velocity')
        # ensure velocities inside of obs object, slightly add obvels outside of obs object
        extrapolateVec3Simple(vel=obvelC_s$ID$, phi=phiObsIn_s$ID$, distance=int(res_s$ID$/2), inside=True)
        extrapolateVec3Simple(vel=obvelC_s$ID$, phi=phiObsIn_s$ID$, distance=1, inside=False)
        resampleVec3ToMac(source=obvelC_s$ID$, target=obvel_s$ID$)

    # add initial velocity
    if using_invel_s$ID$:
        setInitialVelocity(flags=flags_s$ID$, vel=vel_s$ID$, invel=invel_s$ID$)

    mantaMsg('Walls')
    setWallBcs(flags=flags_s$ID$, vel=vel_s$ID$, obvel=obvel_s$ID$ if using_obstacle_s$ID$ else 0)

    if using_guiding_s$ID$:
        mantaMsg('Guiding and pressure')
        PD_fluid_guiding(vel=vel_s$ID$, velT=velT_s$ID$, flags=flags_s$ID$, weight=weightGuide_s$ID$, blurRadius=beta_sg$ID$, pressure=pressure_s$ID$, tau=tau_sg$ID$, sigma=sigma_sg$ID$, theta=theta_sg$ID$, preconditioner=preconditioner_s$ID$, zeroPressureFixing=not doOpen_s$ID$)
    else:
        mantaMsg('Pressure')
        solvePressure(flags=flags_s$ID$, vel=vel_s$ID$, pressure=pressure_s$ID$, preconditioner=preconditioner_s$ID$, zeroPressureFixing=not doOpen_s$ID$) # closed domains require pressure fixing

def process_burn_$ID$():
    mantaMsg('Process burn')
    processBurn(fuel=fuel_s$ID$, density=density_s$ID$, react=react_s$ID$, red=color_r_s$ID$ if using_colors_s$ID$ else 0, green=color_g_s$ID$ if using_colors_s$ID$ else 0, blue=color_b_s$ID$ if using_colors_s$ID$ else 0, heat=heat_s$ID$ if using_heat_s$ID$ else 0, burningRate=$BURNING_RATE$, flameSmoke=$FLAME_SMOKE$, ignitionTemp=$IGNITION_TEMP$, maxTemp=$MAX_TEMP$, flameSmokeColor=vec3($FLAME_SMOKE_COLOR_X$,$FLAME_SMOKE_COLOR_Y$,$FLAME_SMOKE_COLOR_Z$))

def update_flame_$ID$():
    mantaMsg('Update flame')
    updateFlame(react=react_s$ID$, flame=flame_s$ID$)
`

const smokeStepNoise = `
def step_noise_$ID$():
    mantaMsg('Smoke step noise')

    mantaMsg('Interpolating grids')
    interpolateGrid(source=density_s$ID$, target=density_sn$ID$)
    interpolateMACGrid(source=vel_s$ID$, target=vel_sn$ID$)

    for i in range(uvs_s$ID$):
        mantaMsg('Advecting UV')
        advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=uv_s$ID$[i], order=$ADVECT_ORDER$)
        mantaMsg('Updating UVWeight')
        updateUvWeight(resetTime=10.0 , index=i, numUvs=uvs_s$ID$, uv=uv_s$ID$[i])

    mantaMsg('Energy')
    computeEnergy(flags=flags_s$ID$, vel=vel_s$ID$, energy=energy_s$ID$)

    tempFlag_s$ID$.copyFrom(flags_s$ID$)
    extrapolateSimpleFlags(flags=flags_s$ID$, val=tempFlag_s$ID$, distance=2, flagFrom=FlagObstacle, flagTo=FlagFluid)
    extrapolateSimpleFlags(flags=tempFlag_s$ID$, val=energy_s$ID$, distance=6, flagFrom=FlagFluid, flagTo=FlagObstacle)
    computeWaveletCoeffs(energy_s$ID$)

    sStr_s$ID$ = 1.0 * wltStrength_s$ID$
    sPos_s$ID$ = 2.0

    mantaMsg('Applying noise vec')
    for o in range(octaves_s$ID$):
        for i in range(uvs_s$ID$):
            uvWeight_s$ID$ = getUvWeight(uv_s$ID$[i])
            applyNoiseVec3(flags=flags_sn$ID$, target=vel_sn$ID$, noise=wltnoise_sn$ID$, scale=sStr_s$ID$ * uvWeight_s$ID$, scaleSpatial=sPos_s$ID$ , weight=energy_s$ID$, uv=uv_s$ID$[i])
        sStr_s$ID$ *= 0.06 # magic kolmogorov factor
        sPos_s$ID$ *= 2.0

    for substep in range(int(upres_sn$ID$)):
        if using_colors_s$ID$:
            mantaMsg('Advecting colors noise')
            advectSemiLagrange(flags=flags_sn$ID$, vel=vel_sn$ID$, grid=color_r_sn$ID$, order=$ADVECT_ORDER$, openBounds=doOpen_s$ID$)
            advectSemiLagrange(flags=flags_sn$ID$, vel=vel_sn$ID$, grid=color_g_sn$ID$, order=$ADVECT_ORDER$, openBounds=doOpen_s$ID$)
            advectSemiLagrange(flags=flags_sn$ID$, vel=vel_sn$ID$, grid=color_b_sn$ID$, order=$ADVECT_ORDER$, openBounds=doOpen_s$ID$)

        if using_fire_s$ID$:
            mantaMsg('Advecting fire noise')
            advectSemiLagrange(flags=flags_sn$ID$, vel=vel_sn$ID$, grid=fuel_sn$ID$, order=$ADVECT_ORDER$, openBounds=doOpen_s$ID$)
            advectSemiLagrange(flags=flags_sn$ID$, vel=vel_sn$ID$, grid=react_sn$ID$, order=$ADVECT_ORDER$, openBounds=doOpen_s$ID$)

        mantaMsg('Advecting density noise')
        advectSemiLagrange(flags=flags_sn$ID$, vel=vel_sn$ID$, grid=density_sn$ID$, order=$ADVECT_ORDER$, openBounds=doOpen_s$ID$)

def process_burn_noise_$ID$():
    mantaMsg('Process burn noise')
    processBurn(fuel=fuel_sn$ID$, density=density_sn$ID$, react=react_sn$ID$, red=color_r_sn$ID$ if using_colors_s$ID$ else 0, green=color_g_sn$ID$ if using_colors_s$ID$ else 0, blue=color_b_sn$ID$ if using_colors_s$ID$ else 0, burningRate=$BURNING_RATE$, flameSmoke=$FLAME_SMOKE$, ignitionTemp=$IGNITION_TEMP$, maxTemp=$MAX_TEMP$, dt=dt0_s$ID$, flameSmokeColor=vec3($FLAME_SMOKE_COLOR_X$,$FLAME_SMOKE_COLOR_Y$,$FLAME_SMOKE_COLOR_Z$))

def update_flame_noise_$ID$():
    mantaMsg('Update flame noise')
    updateFlame(react=react_sn$ID$, flame=flame_sn$ID$)
`

const smokeLoadData = `
def smoke_load_data_$ID$(path, framenr, file_format):
    mantaMsg('Smoke load data')
    fluid_file_import_s$ID$(dict=smoke_data_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)
`

const smokeLoadNoise = `
def smoke_load_noise_$ID$(path, framenr, file_format):
    mantaMsg('Smoke load noise')
    fluid_file_import_s$ID$(dict=smoke_noise_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)
`

const smokeSaveData = `
def smoke_save_data_$ID$(path, framenr, file_format):
    mantaMsg('Smoke save data')
    fluid_file_export_s$ID$(dict=smoke_data_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)
`

const smokeSaveNoise = `
def smoke_save_noise_$ID$(path, framenr, file_format):
    mantaMsg('Smoke save noise')
    fluid_file_export_s$ID$(dict=smoke_noise_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)
`

const smokeStandalone = `
# Helper function to call cache load functions
def load(frame):
    fluid_load_data_$ID$(os.path.join(cache_dir, 'data'), frame, file_format_data)
    smoke_load_data_$ID$(os.path.join(cache_dir, 'data'), frame, file_format_data)
    if using_noise_s$ID$:
        smoke_load_noise_$ID$(os.path.join(cache_dir, 'noise'), frame, file_format_noise)
    if using_guiding_s$ID$:
        fluid_load_guiding_$ID$(os.path.join(cache_dir, 'guiding'), frame, file_format_data)

# Helper function to call cache save functions
def save(frame):
    fluid_save_data_$ID$(os.path.join(cache_dir, 'data'), frame, file_format_data)
    smoke_save_data_$ID$(os.path.join(cache_dir, 'data'), frame, file_format_data)
    if using_noise_s$ID$:
        smoke_save_noise_$ID$(os.path.join(cache_dir, 'noise'), frame, file_format_noise)

# Helper function to call step functions
def step(frame):
    smoke_adaptive_step_$ID$(frame)
    if using_noise_s$ID$:
        smoke_adaptive_step_noise_$ID$(frame)
`
