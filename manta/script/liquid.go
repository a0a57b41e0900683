package script

// The liquid fragment family. FLIP particles live on the base solver,
// the surface mesh on an upsampled one with the _sm<id> suffix.

const liquidSolverMesh = `
mantaMsg('Solver mesh')
upres_sm$ID$ = $MESH_UPRES$
gs_sm$ID$    = vec3($RES_X$*upres_sm$ID$, $RES_Y$*upres_sm$ID$, $RES_Z$*upres_sm$ID$)
sm$ID$ = Solver(name='solver_mesh_s$ID$', gridSize=gs_sm$ID$)
`

const liquidBounds = `
# Prepare domain
mantaMsg('Liquid domain')
flags_s$ID$.initDomain(boundaryWidth=boundaryWidth_s$ID$, phiWalls=phiObs_s$ID$)
if doOpen_s$ID$:
    setOpenBound(flags=flags_s$ID$, bWidth=boundaryWidth_s$ID$, openBound=boundConditions_s$ID$, type=FlagOutflow|FlagEmpty)
`

const liquidVariables = `
mantaMsg('Liquid variables')
preconditioner_s$ID$ = PcMGDynamic
using_mesh_s$ID$     = $USING_MESH$
narrowBand_s$ID$     = 3
combineBandWidth_s$ID$ = narrowBand_s$ID$ - 1

particleRadius_s$ID$  = $PARTICLE_RADIUS$
randomness_s$ID$      = $PARTICLE_RANDOMNESS$
particleNumber_s$ID$  = $PARTICLE_NUMBER$
minParticles_s$ID$    = $PARTICLE_MINIMUM$
maxParticles_s$ID$    = $PARTICLE_MAXIMUM$
flipRatio_s$ID$       = $FLIP_RATIO$
`

const liquidAlloc = `
mantaMsg('Liquid alloc')
phi_s$ID$      = s$ID$.create(LevelsetGrid)
phiParts_s$ID$ = s$ID$.create(LevelsetGrid)
phiIn_s$ID$    = s$ID$.create(LevelsetGrid)
velOld_s$ID$   = s$ID$.create(MACGrid)
velParts_s$ID$ = s$ID$.create(MACGrid)
mapWeights_s$ID$ = s$ID$.create(MACGrid)

pp_s$ID$       = s$ID$.create(BasicParticleSystem)
pVel_pp$ID$    = pp_s$ID$.create(PdataVec3)
pindex_s$ID$   = s$ID$.create(ParticleIndexSystem)
gpi_s$ID$      = s$ID$.create(IntGrid)

# Keep track of important objects in dict to load them later on
liquid_data_dict_s$ID$ = dict(phi=phi_s$ID$, phiIn=phiIn_s$ID$)
liquid_particles_dict_s$ID$ = dict(pp=pp_s$ID$, pVel=pVel_pp$ID$)
`

const liquidAllocMesh = `
mantaMsg('Liquid alloc mesh')
phi_sm$ID$   = sm$ID$.create(LevelsetGrid)
mesh_sm$ID$  = sm$ID$.create(Mesh)

# Keep track of important objects in dict to load them later on
liquid_mesh_dict_s$ID$ = dict(lMesh=mesh_sm$ID$)
`

const liquidAdaptiveStep = `
def liquid_adaptive_step_$ID$(framenr):
    mantaMsg('Manta step, frame ' + str(framenr))

    # time params are animatable
    s$ID$.frameLength = dt0_s$ID$
    s$ID$.cfl = cfl_cond_s$ID$

    fluid_pre_step_$ID$()

    if using_obstacle_s$ID$:
        phiObs_s$ID$.join(phiObsIn_s$ID$)

    phi_s$ID$.join(phiIn_s$ID$)
    phiOut_s$ID$.join(phiOutIn_s$ID$)

    setObstacleFlags(flags=flags_s$ID$, phiObs=phiObs_s$ID$, phiOut=phiOut_s$ID$)
    flags_s$ID$.fillGrid()

    mantaMsg('Liquid step / s$ID$.frame: ' + str(s$ID$.frame))
    liquid_step_$ID$()

    s$ID$.step()

    fluid_post_step_$ID$()
`

const liquidStep = `
def liquid_step_$ID$():
    mantaMsg('Liquid step low')
    mantaMsg('Advecting particles')
    pp_s$ID$.advectInGrid(flags=flags_s$ID$, vel=vel_s$ID$, integrationMode=IntRK4, deleteInObstacle=False, stopInObstacle=False)

    mantaMsg('Pushing particles out of obstacles')
    pushOutofObs(parts=pp_s$ID$, flags=flags_s$ID$, phiObs=phiObs_s$ID$)

    mantaMsg('Advecting phi')
    advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=phi_s$ID$, order=1)
    mantaMsg('Advecting velocity')
    advectSemiLagrange(flags=flags_s$ID$, vel=vel_s$ID$, grid=vel_s$ID$, order=2, openBounds=doOpen_s$ID$, boundaryWidth=boundaryWidth_s$ID$)

    # create level set of particles
    gridParticleIndex(parts=pp_s$ID$, flags=flags_s$ID$, indexSys=pindex_s$ID$, index=gpi_s$ID$)
    unionParticleLevelset(pp_s$ID$, pindex_s$ID$, flags_s$ID$, gpi_s$ID$, phiParts_s$ID$, particleRadius_s$ID$)

    # combine level set of particles with grid level set
    phi_s$ID$.addConst(1.) # shrink slightly
    phi_s$ID$.join(phiParts_s$ID$)
    extrapolateLsSimple(phi=phi_s$ID$, distance=narrowBand_s$ID$+2, inside=True)
    extrapolateLsSimple(phi=phi_s$ID$, distance=3)
    phi_s$ID$.setBoundNeumann(boundaryWidth_s$ID$)

    # make sure we have velocities throughout liquid region
    mapPartsToMAC(vel=velParts_s$ID$, flags=flags_s$ID$, velOld=velOld_s$ID$, parts=pp_s$ID$, partVel=pVel_pp$ID$, weight=mapWeights_s$ID$)
    extrapolateMACFromWeight(vel=velParts_s$ID$, distance=2, weight=mapWeights_s$ID$)
    combineGridVel(vel=velParts_s$ID$, weight=mapWeights_s$ID$, combineVel=vel_s$ID$, phi=phi_s$ID$, narrowBand=combineBandWidth_s$ID$, thresh=0)
    velOld_s$ID$.copyFrom(vel_s$ID$)

    # forces & pressure solve
    addGravity(flags=flags_s$ID$, vel=vel_s$ID$, gravity=gravity_s$ID$)

    mantaMsg('Adding forces')
    addForceField(flags=flags_s$ID$, vel=vel_s$ID$, force=forces_s$ID$)

    # add initial velocity
    if using_invel_s$ID$:
        setInitialVelocity(flags=flags_s$ID$, vel=vel_s$ID$, invel=invel_s$ID$)

    mantaMsg('Walls')
    setWallBcs(flags=flags_s$ID$, vel=vel_s$ID$, obvel=obvel_s$ID$ if using_obstacle_s$ID$ else 0, phiObs=phiObs_s$ID$)

    if using_guiding_s$ID$:
        mantaMsg('Guiding and pressure')
        PD_fluid_guiding(vel=vel_s$ID$, velT=velT_s$ID$, flags=flags_s$ID$, phi=phi_s$ID$, weight=weightGuide_s$ID$, blurRadius=beta_sg$ID$, pressure=pressure_s$ID$, tau=tau_sg$ID$, sigma=sigma_sg$ID$, theta=theta_sg$ID$, preconditioner=preconditioner_s$ID$, zeroPressureFixing=not doOpen_s$ID$)
    else:
        mantaMsg('Pressure')
        solvePressure(flags=flags_s$ID$, vel=vel_s$ID$, pressure=pressure_s$ID$, phi=phi_s$ID$, preconditioner=preconditioner_s$ID$, zeroPressureFixing=not doOpen_s$ID$)

    extrapolateMACSimple(flags=flags_s$ID$, vel=vel_s$ID$, distance=4, intoObs=True)
    setWallBcs(flags=flags_s$ID$, vel=vel_s$ID$, obvel=obvel_s$ID$ if using_obstacle_s$ID$ else 0, phiObs=phiObs_s$ID$)

    # set source grids for resampling, used in adjustNumber
    pVel_pp$ID$.setSource(vel_s$ID$, isMAC=True)
    adjustNumber(parts=pp_s$ID$, vel=vel_s$ID$, flags=flags_s$ID$, minParticles=minParticles_s$ID$, maxParticles=maxParticles_s$ID$, phi=phi_s$ID$, radiusFactor=particleRadius_s$ID$, narrowBand=narrowBand_s$ID$)
    flipVelocityUpdate(vel=vel_s$ID$, velOld=velOld_s$ID$, flags=flags_s$ID$, parts=pp_s$ID$, partVel=pVel_pp$ID$, flipRatio=flipRatio_s$ID$)
`

const liquidStepMesh = `
def liquid_step_mesh_$ID$():
    mantaMsg('Liquid step mesh')
    interpolateGrid(target=phi_sm$ID$, source=phi_s$ID$)

    # create surface
    improvedParticleLevelset(pp_s$ID$, pindex_s$ID$, flags_s$ID$, gpi_s$ID$, phiParts_s$ID$, $MESH_PARTICLE_RADIUS$, $MESH_SMOOTHEN_POS$, $MESH_SMOOTHEN_NEG$, $MESH_CONCAVE_LOWER$, $MESH_CONCAVE_UPPER$)
    phi_sm$ID$.setBound(value=0., boundaryWidth=1)
    phi_sm$ID$.createMesh(mesh_sm$ID$)
`

const liquidLoadData = `
def liquid_load_data_$ID$(path, framenr, file_format):
    mantaMsg('Liquid load data')
    fluid_file_import_s$ID$(dict=liquid_data_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)

def liquid_load_particles_$ID$(path, framenr, file_format):
    mantaMsg('Liquid load particles')
    fluid_file_import_s$ID$(dict=liquid_particles_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)
`

const liquidSaveData = `
def liquid_save_data_$ID$(path, framenr, file_format):
    mantaMsg('Liquid save data')
    fluid_file_export_s$ID$(dict=liquid_data_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)

def liquid_save_particles_$ID$(path, framenr, file_format):
    mantaMsg('Liquid save particles')
    fluid_file_export_s$ID$(dict=liquid_particles_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)
`

const liquidSaveMesh = `
def liquid_save_mesh_$ID$(path, framenr, file_format):
    mantaMsg('Liquid save mesh')
    fluid_file_export_s$ID$(dict=liquid_mesh_dict_s$ID$, path=path, framenr=framenr, file_format=file_format)
`

const liquidStandalone = `
# Helper function to call cache load functions
def load(frame):
    fluid_load_data_$ID$(os.path.join(cache_dir, 'data'), frame, file_format_data)
    liquid_load_data_$ID$(os.path.join(cache_dir, 'data'), frame, file_format_data)
    liquid_load_particles_$ID$(os.path.join(cache_dir, 'particles'), frame, file_format_data)
    if using_guiding_s$ID$:
        fluid_load_guiding_$ID$(os.path.join(cache_dir, 'guiding'), frame, file_format_data)

# Helper function to call cache save functions
def save(frame):
    fluid_save_data_$ID$(os.path.join(cache_dir, 'data'), frame, file_format_data)
    liquid_save_data_$ID$(os.path.join(cache_dir, 'data'), frame, file_format_data)
    liquid_save_particles_$ID$(os.path.join(cache_dir, 'particles'), frame, file_format_data)
    if using_mesh_s$ID$:
        liquid_save_mesh_$ID$(os.path.join(cache_dir, 'mesh'), frame, file_format_data)

# Helper function to call step functions
def step(frame):
    liquid_adaptive_step_$ID$(frame)
    if using_mesh_s$ID$:
        liquid_step_mesh_$ID$()
`
